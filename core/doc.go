// Package core defines the shared data model and capability contracts the
// agent pipelines are built on: conversation threads and messages, the
// ThreadStore / Retriever / WebSearcher interfaces, routing decisions,
// citations and assistant outputs, the error taxonomy, and small execution
// helpers (bounded retry, per-turn call limiter).
//
// Core deliberately owns no I/O. Concrete capability implementations live in
// sibling packages (thread, retrieval, websearch, model) and are injected into
// the orchestrator and agents through these interfaces.
package core
