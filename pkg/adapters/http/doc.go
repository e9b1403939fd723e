/*
Package http mounts relview handlers on chi.

View turns a relview.Handler into an http.HandlerFunc: chi URL parameters become the view's keyword arguments, the
request is wrapped in a Request facade and the resulting Response is written as JSON. Sessions loads the session
named by a cookie before the handler runs and saves it afterwards.

Errors are written as an envelope:

	{"error": {"code": "INTERNAL_ERROR", "message": "internal server error"}}
*/
package http
