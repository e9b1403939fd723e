/*
Package formflow drives multi-step forms whose navigation history lives in the user session.

Every form view is a route whose name ends in "_form_view". A Controller wraps the view's Form and, on each request,
begins a Step: it consumes a packet addressed to the view, or initiates a new flow from the referer. The Step then
lets the form move forward (SendNext), go back (SendBack) or redirect anywhere (RedirectTo).

# Session layout

	_formflow           stack of {by, url} return-to points
	_packet             payload for the next step, tagged with "to"
	views.<route name>  per-view cache, usually holding "_formdata"

# Replay

A GET on a view that has cached form data is treated as a resubmission: the frame the view pushed is popped and the
request goes to PostForm instead of GetForm.
*/
package formflow
