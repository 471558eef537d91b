// Package params extracts request parameters from bodies and query strings
// and merges them with route variables according to a Mode.
//
// Body extraction never fails: a payload that cannot be decoded the way its
// Content-Type announces is exposed under the reserved BodyKey instead.
package params
