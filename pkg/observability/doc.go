/*
Package observability exposes Prometheus metrics for related view composition and form flows.

Metrics implements relview.Recorder and formflow.Recorder, so it can be handed to a Composer and to every form
Controller. Handler serves the collected metrics in the Prometheus text format.
*/
package observability
