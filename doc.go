/*
Package relview lets one HTTP view call other views in-process and merge their results into its own response.

A primary view declares its related views once. On every request the Composer decides which of them run, builds the
parameters each one receives, invokes them in order through a DummyRequest and places their results in the primary
response body.

# Concept

A related view is an ordinary data view (ViewFunc). It receives a Request and keyword arguments and returns a Result:
an object, a list, or a complete Response. Any Handler becomes a data view with AsData.

The views to run are chosen from the "relview" query parameter:

	/profile?relview=all,-orders     every declared view except orders
	/profile?relview=summary         only summary
	/profile?relview=                none

Without the parameter the Router default applies, then the TabSelector (when attached), then "all".

# Parameter forwarding

Each ViewSpec carries a forwarding spec evaluated against the current view's parameters:

	"*"                   forward everything
	"page=1,ids=1:2"      literals; ':' stands for ','
	"user as owner"       rename
	"user"                copy through

# Merging

Results land under "extdata" keyed by view name, or at the top level of the response for views declared with
MergeTop. Views run sequentially in resolution order, so a later view wins a shared key.

# Key Packages

  - pkg/formflow: session-backed multi-step form navigation.
  - pkg/filters: filter, ordering and count backends for list views.
  - pkg/session: session loading and saving with per-session locks.
  - pkg/adapters/http: chi integration.
*/
package relview
