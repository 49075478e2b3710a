// Package capture holds the host-side event store and the bridge message
// schema for instrumented web content.
//
// A hosted page emits fire-and-forget messages over two named channels,
// consoleLog and networkLog. The Bridge validates each payload at the host
// boundary (malformed payloads are dropped, unknown channels ignored) and
// appends the result into a Store.
//
// # Store semantics
//
// The Store keeps two independent bounded sequences in arrival order:
//
//   - console entries, capacity 5000
//   - network entries, capacity 2000
//
// Every insert evicts from the front when at capacity, so memory stays
// bounded no matter how fast the page produces events; there is no
// backpressure toward the sender. The error counter always equals the number
// of stored console entries with level "error", maintained across appends,
// evictions and clears.
//
// All append and clear operations are total functions: inputs are defaulted
// or coerced (an unrecognized console level becomes "log"), never rejected.
//
// Consumers read snapshots via Console/Network, optionally filtered, and can
// Subscribe for best-effort change notifications.
package capture
