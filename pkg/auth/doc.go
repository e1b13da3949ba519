// Package auth provides the two-stage access decision for agentgate.
//
// Authentication turns request headers into a verified Identity. Authorization
// turns that Identity plus the requested operation into a Filter that the
// resource layer must apply to every read and write. One Strategy (an
// Authenticator and Authorizer pair) is selected at start-up and shared,
// read-only, by every request.
//
// The HTTP middleware in this package runs the Authenticator and injects the
// resulting Identity into the request context. Authorization runs later, in the
// resource layer, once the operation payload is known.
package auth
