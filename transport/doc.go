// Package transport contains core.Transport implementations and decorators.
//
// A transport asks one agent one question. Ask returns immediately with a
// reply channel and an error channel; the reply channel yields optional
// progress replies and then the final answer, the error channel yields at
// most one failure. Both are closed when the call is done.
//
// Provided here:
//
//   - Mock: scripted per-agent behaviour for tests and demos
//   - WithRetry: retries transient failures with exponential backoff
//   - WithRateLimit: throttles calls with a token bucket
//   - Await: consumes a reply/error channel pair
//
// Sub-packages provide the knowledge, OpenAI, Anthropic and HTTP (a4s)
// transports.
package transport
