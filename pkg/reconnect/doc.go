// Package reconnect implements the WiFi reconnection engine.
//
// The engine keeps a device attached to one configured wireless network. It
// owns a single wake loop:
//
//  1. Block until the WakeSignal is set (by a status source, a periodic
//     re-check, or a self-issued retry).
//  2. Query the current connectivity level. Stop if it is InternetAccess.
//  3. Acquire a WiFi adapter and read its scan report.
//  4. Select the strongest network whose SSID equals the configured one.
//  5. Ask the connection agent to associate with it and log the outcome.
//
// # Wake Signal
//
// The WakeSignal is a single-slot mailbox. Any number of notifications that
// arrive while a cycle is in flight collapse into exactly one pending wake,
// so the loop never runs two cycles concurrently and never misses a change.
//
// # Retry Policy
//
// Under PolicyHardened (the default) an error or panic raised during a cycle
// is logged at the loop boundary and the signal is re-armed after a backoff
// delay. A failed connection outcome is retried the same way. The delay grows
// exponentially with jitter:
//
//	actual_delay = base_delay + random(0, base_delay * jitter)
//
// and resets to the initial value once connectivity is restored.
//
// Under PolicyMinimal errors end Run and panics are left to the process.
//
// # Capabilities
//
// Platform services are injected through the Deps struct: StatusSource,
// ConnectivityQuery, AdapterProvider and ConnectionAgent. Package nm provides
// a NetworkManager implementation; tests use in-memory fakes.
package reconnect
