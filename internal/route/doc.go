// Package route compiles path templates and matches request paths
// against them.
//
// A template such as "/users/{id}/account/:acctId" is normalized to carry
// exactly one leading and one trailing slash and compiled into a
// prefix-anchored regular expression with one non-greedy capture group per
// variable. Literal templates (no variables) match only the identical
// normalized path.
//
// When several patterns match the same path, Best selects the one with the
// longest matched literal; ties keep the earliest pattern.
//
// Compiled expressions are shared through a bounded LRU cache exported as
// Prometheus metrics under the webfunc_route subsystem.
package route
