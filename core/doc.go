// Package core provides the foundational domain types and interfaces of
// agentchat. It defines the core abstractions for:
//
//   - Conversations (direct or channel chats, each owning one transcript)
//   - Events (immutable, strictly ordered transcript records)
//   - Turn lifecycle states
//   - Pluggable capabilities: TranscriptStore, ParticipantSource, Directory
//     and Transport
//
// Implementations (stores, transports, the orchestrator itself) live in
// sibling packages so callers depend only on these small interfaces.
package core
