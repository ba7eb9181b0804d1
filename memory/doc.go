// Package memory contains concrete MemoryStore implementations. The store
// interface and SearchResult type reside in the core package. Depend on
// core.MemoryStore in your code and select an implementation (like the
// in-memory store below) at wiring time.
//
// The knowledge transport answers an agent's questions from that agent's
// memories, so every entry is scoped to one core.AgentID.
package memory
