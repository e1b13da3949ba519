// Package storage provides utilities shared across storage adapter
// implementations, including sentinel errors and owner context helpers.
//
// Storage adapters (memory, postgres) implement the transport.ResourceStore
// interface defined in pkg/transport/service.go. This package contains
// only shared types and helpers, not the interface itself.
package storage
