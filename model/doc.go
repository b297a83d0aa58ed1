// Package model defines the text generation capability the agents consume: a
// normalized Request (instructions, conversation messages, optional JSON
// schema for structured output) and a channel-streaming Generate contract.
// Provider adapters live in subpackages (openai, anthropic); MockModel offers
// a deterministic in-memory implementation for tests and examples.
package model
