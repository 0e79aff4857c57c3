// Package notifier delivers cycle reports to the configured chat.
//
// Delivery is synchronous: Send returns only after the transport accepted
// the message or failed. There is no queue and no retry; a failed send is
// reported back to the caller, which decides whether the baseline advances.
//
// # Rate limiting
//
// Sends pass through a token bucket so bursts (a change report followed by
// a failure report) never exceed the configured rate.
//
// # History
//
// The service keeps a small in-memory history of recent sends for logging
// and diagnostics.
//
// # Dry run
//
// When disabled the service logs each message instead of sending it and
// reports success.
package notifier
