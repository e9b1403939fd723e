package filters

import (
	"fmt"
	"net/url"

	"github.com/aretw0/relview"
)

// Source loads the rows of a list view.
type Source func(req relview.Request, kwargs relview.Params) ([]any, error)

// ListView serves filtered rows, reports the applied filters and, when a
// composer is set, merges related views into the response.
type ListView struct {
	Source   Source
	Backends []Backend

	// Paginate shapes the rows when no backend capped them. Rows are returned
	// as a plain list when nil.
	Paginate func(rows []any, q url.Values) relview.Body

	Composer *relview.Composer
}

// Serve satisfies relview.Handler.
func (v *ListView) Serve(req relview.Request, kwargs relview.Params) (*relview.Response, error) {
	rows, err := v.Source(req, kwargs)
	if err != nil {
		return nil, fmt.Errorf("failed to load rows: %w", err)
	}

	st, err := Chain(filterArgs(req.QueryParams(), kwargs), rows, v.Backends...)
	if err != nil {
		return nil, err
	}

	var body relview.Body
	switch {
	case st.NoPagination:
		body = NoPagination(st.Rows)
	case v.Paginate != nil:
		body = v.Paginate(st.Rows, st.Query)
	default:
		body = relview.ListBody(st.Rows)
	}

	resp := relview.NewResponse(body)
	AttachApplied(resp, st.Applied)

	if v.Composer == nil {
		return resp, nil
	}
	return v.Composer.FetchRelated(req, kwargs, resp)
}

// filterArgs overlays view arguments on the query string, so related views
// filter on the parameters they were called with.
func filterArgs(q url.Values, kwargs relview.Params) url.Values {
	out := make(url.Values, len(q)+len(kwargs))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range kwargs {
		out.Set(k, v)
	}
	return out
}
