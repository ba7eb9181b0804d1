// Package transcript provides the in-memory Transcript Store used by the
// orchestrator, a non-blocking event Broadcaster for live consumers, and
// helpers that turn a transcript into the history window passed to agents.
//
// Stores assign a strictly increasing Seq to every appended event. Snapshots
// are point-in-time copies; subscribers receive events appended after they
// subscribed, so consumers that need both should subscribe first, snapshot
// second and skip duplicates by Seq.
package transcript
