// Package thread provides ThreadStore implementations for conversation
// persistence. The in-memory store is suitable for tests and single-process
// deployments; production systems supply a durable implementation of
// core.ThreadStore.
package thread
