// Package gamedex scrapes game-listing threads from a community forum,
// extracts structured fields with an LLM (with a deterministic fallback),
// probes file hosts for download sizes, and reconciles the result against
// a persisted record store.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, gemini/, sqlite/).
package gamedex
