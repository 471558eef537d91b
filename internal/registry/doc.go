// Package registry stores endpoints (route patterns, an optional method and
// a handler chain) and resolves request paths to the most specific one.
//
// The registry is copy-on-write: every mutation publishes a new immutable
// snapshot, so Resolve never takes a lock and an in-flight request always
// sees a consistent set of endpoints.
package registry
