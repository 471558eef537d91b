// Package health provides the health endpoint served through the dispatch
// pipeline.
//
// A Checker holds named checks. Its Handler is a terminal handler that runs
// every check and replies 200 with status "ok" when all pass, or 503 with
// the failing checks listed otherwise.
package health
