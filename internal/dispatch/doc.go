// Package dispatch runs every request through a fixed sequence of stages:
// pre-event hook, CORS check, routing, parameter merge, handler chain and
// post-event hook.
//
// A Pipeline is immutable. Reconfiguring produces a new Pipeline through
// WithConfig, which shares the registry, hooks and observability sinks of
// the original.
//
// Dispatch never returns an error and never panics. Failures become a
// plain-text 403, 404 or 500 response; at most one response is written per
// request and the first stage to fail owns it. The post-event hook always
// runs.
package dispatch
