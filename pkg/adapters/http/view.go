package http

import (
	"log/slog"
	"net/http"

	"github.com/aretw0/relview"
	"github.com/aretw0/relview/internal/logging"
	"github.com/go-chi/chi/v5"
)

// ViewOption configures View.
type ViewOption func(*viewConfig)

type viewConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for error reporting.
func WithLogger(logger *slog.Logger) ViewOption {
	return func(c *viewConfig) {
		c.logger = logger
	}
}

// View serves h. chi URL parameters become the view's keyword arguments and
// the session is taken from the request context.
func View(h relview.Handler, opts ...ViewOption) http.HandlerFunc {
	cfg := &viewConfig{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		req, err := NewRequest(r, SessionFrom(r.Context()))
		if err != nil {
			Error(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}

		resp, err := h(req, URLParams(r))
		if err != nil {
			HandleError(w, cfg.logger, err)
			return
		}
		if resp == nil {
			HandleError(w, cfg.logger, errNilResponse)
			return
		}
		WriteResponse(w, resp)
	}
}

// URLParams returns the chi URL parameters of r.
func URLParams(r *http.Request) relview.Params {
	out := make(relview.Params)
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return out
	}
	for i, k := range rctx.URLParams.Keys {
		if k == "*" && rctx.URLParams.Values[i] == "" {
			continue
		}
		out[k] = rctx.URLParams.Values[i]
	}
	return out
}
