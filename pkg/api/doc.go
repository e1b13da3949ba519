// Package api defines the wire types of the agentgate resource API.
//
// Protected resources (assistants, threads, runs, crons) are opaque documents
// with free-form metadata and values. Ownership is recorded in the metadata
// "owner" key and mirrored in [Resource.Owner] so stores can constrain
// queries without inspecting the document.
//
// Core types:
//   - [Resource]: a stored document of one [Kind]
//   - [CreateResourceRequest], [UpdateResourceRequest], [SearchRequest]: request bodies
//   - [ResourceList]: search results
//   - [MeResponse]: the caller identity as seen by the gateway
//   - [APIError]: structured error with type, code, param, and message
package api
