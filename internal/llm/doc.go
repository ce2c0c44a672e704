// Package llm provides completion clients for the OpenAI and Anthropic APIs.
// Requests are deterministic (temperature 0, top_p 1) and routed through the
// persistent call cache, so an identical prompt is only ever paid for once.
// Model output is decoded with DecodeJSON, which checks it against a JSON
// schema before it reaches typed results.
package llm
