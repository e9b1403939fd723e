package domain

import (
	"strings"
	"time"
)

// Reserved names used by the form flow.
const (
	// FormViewSuffix terminates the route name of every form view.
	FormViewSuffix = "_form_view"

	// FormDataKey is the view cache entry holding a cached form submission.
	FormDataKey = "_formdata"

	// InitiatorName marks the bottom frame of a freshly initiated flow.
	InitiatorName = "initiator"

	// PacketTargetKey is the packet entry naming the destination form view.
	PacketTargetKey = "to"
)

// Frame is one "return-to" point of a form flow.
type Frame struct {
	By  string `json:"by"`
	URL string `json:"url"`
}

// Packet is a payload handed from one form step to the step named by its "to" entry.
type Packet map[string]any

// To returns the destination view of the packet, or "" when untagged.
func (p Packet) To() string {
	to, _ := p[PacketTargetKey].(string)
	return to
}

// Session is the per-user document persisted by a SessionStore.
type Session struct {
	ID string `json:"id"`

	// Flow is the navigation stack of the current multi-step form sequence.
	// The last frame is the most recent return-to point.
	Flow []Frame `json:"_formflow,omitempty"`

	// Packet is the pending cross-step payload, if any.
	Packet Packet `json:"_packet,omitempty"`

	// Views holds per-view caches keyed by the view's route name.
	Views map[string]map[string]any `json:"views,omitempty"`

	// Values holds arbitrary application data.
	Values map[string]any `json:"values,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{
		ID:     id,
		Views:  make(map[string]map[string]any),
		Values: make(map[string]any),
	}
}

// Snapshot returns a copy that shares no maps or slices with s, nested
// values included.
func (s *Session) Snapshot() *Session {
	c := *s
	if s.Flow != nil {
		c.Flow = append([]Frame(nil), s.Flow...)
	}
	if s.Packet != nil {
		c.Packet = Packet(copyMap(s.Packet))
	}
	c.Views = make(map[string]map[string]any, len(s.Views))
	for name, cache := range s.Views {
		inner := make(map[string]any, len(cache))
		for k, v := range cache {
			inner[k] = copyValue(v)
		}
		c.Views[name] = inner
	}
	c.Values = make(map[string]any, len(s.Values))
	for k, v := range s.Values {
		c.Values[k] = copyValue(v)
	}
	return &c
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case Packet:
		return Packet(copyMap(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// HasFlow reports whether a flow is in progress.
func (s *Session) HasFlow() bool {
	return len(s.Flow) > 0
}

// LastFrame returns the top of the flow stack.
func (s *Session) LastFrame() (Frame, bool) {
	if len(s.Flow) == 0 {
		return Frame{}, false
	}
	return s.Flow[len(s.Flow)-1], true
}

// PushFrame appends a return-to point.
func (s *Session) PushFrame(f Frame) {
	s.Flow = append(s.Flow, f)
}

// PopFrame removes and returns the top of the flow stack.
func (s *Session) PopFrame() (Frame, bool) {
	f, ok := s.LastFrame()
	if !ok {
		return Frame{}, false
	}
	s.Flow = s.Flow[:len(s.Flow)-1]
	return f, true
}

// DestroyFlow clears the flow stack, the pending packet and every form view cache.
func (s *Session) DestroyFlow() {
	s.Flow = nil
	s.Packet = nil
	for name := range s.Views {
		if strings.HasSuffix(name, FormViewSuffix) {
			delete(s.Views, name)
		}
	}
}

// InitiateFlow discards any flow in progress and starts a new one at url.
func (s *Session) InitiateFlow(url string) {
	s.DestroyFlow()
	s.Flow = []Frame{{By: InitiatorName, URL: url}}
}

// TakePacket removes and returns the pending packet when it is addressed to view.
func (s *Session) TakePacket(view string) (Packet, bool) {
	if s.Packet == nil || s.Packet.To() != view {
		return nil, false
	}
	p := s.Packet
	s.Packet = nil
	return p, true
}

// ViewCache returns the cache of the named view, creating it when absent.
func (s *Session) ViewCache(view string) map[string]any {
	if s.Views == nil {
		s.Views = make(map[string]map[string]any)
	}
	cache, ok := s.Views[view]
	if !ok {
		cache = make(map[string]any)
		s.Views[view] = cache
	}
	return cache
}
