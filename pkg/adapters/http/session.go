package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aretw0/relview/internal/logging"
	"github.com/aretw0/relview/pkg/domain"
	"github.com/aretw0/relview/pkg/session"
	"github.com/google/uuid"
)

// DefaultCookieName names the session cookie.
const DefaultCookieName = "relview_session"

type sessionKey struct{}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session stored by the Sessions middleware, or nil.
func SessionFrom(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionKey{}).(*domain.Session)
	return sess
}

// SessionOptions configure the Sessions middleware.
type SessionOptions struct {
	CookieName string
	Secure     bool

	// MaxAge of the cookie in seconds; zero makes it a browser session cookie.
	MaxAge int

	Logger *slog.Logger
}

// Sessions loads the session named by the cookie (or starts one), exposes it
// through the request context and saves it once the handler returns.
func Sessions(m *session.Manager, opts SessionOptions) func(http.Handler) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(opts.CookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					id = c.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     opts.CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   opts.MaxAge,
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			sess, err := m.LoadOrCreate(r.Context(), id)
			if err != nil {
				HandleError(w, opts.Logger, err)
				return
			}

			sw := &saveWriter{ResponseWriter: w, save: func() {
				if err := m.Save(r.Context(), sess); err != nil {
					opts.Logger.Error("failed to save session", "session_id", id, "err", err)
				}
			}}
			next.ServeHTTP(sw, r.WithContext(WithSession(r.Context(), sess)))
			sw.flush()
		})
	}
}

// saveWriter saves the session before the first byte of the response goes
// out, so a client following a redirect observes the new state.
type saveWriter struct {
	http.ResponseWriter
	save  func()
	saved bool
}

func (w *saveWriter) flush() {
	if !w.saved {
		w.saved = true
		w.save()
	}
}

func (w *saveWriter) WriteHeader(status int) {
	w.flush()
	w.ResponseWriter.WriteHeader(status)
}

func (w *saveWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *saveWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
