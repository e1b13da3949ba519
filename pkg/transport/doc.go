// Package transport defines the resource service and the HTTP middleware
// chain for the agentgate API.
//
// # Resource Service
//
// [Service] is the protected resource layer. Every operation first asks the
// active [auth.Strategy] to authorize the caller for the resource kind and
// action. The returned filter's owner is placed into the context with
// storage.SetOwner, and the store constrains reads, updates, deletes and
// searches by it. Ownership metadata stamped by the authorizer is persisted
// on create and re-applied on update, so a caller cannot move a resource to
// another owner.
//
// Stores implement [ResourceStore]. Adapters live in pkg/storage/memory and
// pkg/storage/postgres.
//
// # Middleware
//
// [Middleware] wraps an http.Handler. Built-in middleware provides panic
// recovery, request ID assignment (X-Request-ID), and structured logging via
// log/slog. Authentication middleware is provided by pkg/auth.
package transport
