// Package adapter connects a dispatch pipeline to its hosting environment.
//
// HTTPHandler serves localhost, now and gcp deployments through net/http,
// GinHandler serves express deployments through a gin engine, and
// LambdaHandler serves aws deployments behind API Gateway proxy events.
// Server runs the listening hosting types and lets a reloaded pipeline be
// swapped in without dropping connections.
package adapter
