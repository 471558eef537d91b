// Package cors validates cross-origin requests against a Policy built from
// the configured literal response headers and computes the headers sent
// back on allowed requests.
package cors
