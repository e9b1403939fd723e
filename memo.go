package relview

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/aretw0/relview/internal/logging"
	"github.com/aretw0/relview/pkg/domain"
	"github.com/aretw0/relview/pkg/ports"
)

// DefaultMemoTTL is used when Memo.TTL is zero.
const DefaultMemoTTL = 5 * time.Minute

// Memo caches the results of data views in a ports.Cache.
type Memo struct {
	Cache ports.Cache

	// TTL of cached results; DefaultMemoTTL when zero.
	TTL time.Duration

	// Disabled turns Wrap into a no-op.
	Disabled bool

	// SkipFormats lists renderer formats that always recompute. Results are
	// still written back. Defaults to "api" and "json".
	SkipFormats []string

	Logger *slog.Logger
}

type memoEntry struct {
	Kind   BodyKind       `json:"kind"`
	Object map[string]any `json:"object,omitempty"`
	List   []any          `json:"list,omitempty"`
}

func (m *Memo) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return logging.NewNop()
}

func (m *Memo) ttl() time.Duration {
	if m.TTL > 0 {
		return m.TTL
	}
	return DefaultMemoTTL
}

func (m *Memo) skip(format string) bool {
	formats := m.SkipFormats
	if formats == nil {
		formats = []string{"api", "json"}
	}
	for _, f := range formats {
		if f == format {
			return true
		}
	}
	return false
}

// Wrap returns fn backed by the cache. init holds fixed parameters of the
// view that take part in the cache key.
func (m *Memo) Wrap(name string, fn ViewFunc, init Params) ViewFunc {
	if m == nil || m.Disabled || m.Cache == nil {
		return fn
	}
	return func(req Request, kwargs Params) (Result, error) {
		ctx := req.Context()
		key := MemoKey(name, kwargs, init)

		if !m.skip(req.Format()) {
			if res, ok := m.load(req, key); ok {
				return res, nil
			}
		}

		res, err := fn(req, kwargs)
		if err != nil {
			return Result{}, err
		}
		body, err := res.Body()
		if err != nil {
			return Result{}, err
		}

		raw, err := json.Marshal(memoEntry{Kind: body.Kind(), Object: body.object, List: body.list})
		if err != nil {
			m.logger().Warn("failed to encode memoized view", "view", name, "err", err)
			return res, nil
		}
		if err := m.Cache.Set(ctx, key, raw, m.ttl()); err != nil {
			m.logger().Warn("failed to store memoized view", "view", name, "err", err)
		}
		return res, nil
	}
}

func (m *Memo) load(req Request, key string) (Result, bool) {
	raw, err := m.Cache.Get(req.Context(), key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			m.logger().Warn("failed to read memoized view", "key", key, "err", err)
		}
		return Result{}, false
	}
	var e memoEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		m.logger().Warn("discarding corrupt memoized view", "key", key, "err", err)
		return Result{}, false
	}
	switch e.Kind {
	case BodyObject:
		return Object(e.Object), true
	case BodyList:
		return List(e.List), true
	}
	return Result{}, false
}

// MemoKey derives the cache key of a view call. The "format" parameter is ignored.
func MemoKey(name string, kwargs, init Params) string {
	v := make(url.Values, len(kwargs)+len(init))
	for k, val := range kwargs {
		v.Set(k, val)
	}
	for k, val := range init {
		v.Set(k, val)
	}
	v.Del("format")
	sum := sha1.Sum([]byte(fmt.Sprintf("%s:%s", name, v.Encode())))
	return hex.EncodeToString(sum[:])
}
