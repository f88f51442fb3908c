// Package app wires the application together: configuration, logging,
// OpenTelemetry, storage, cache, services and the HTTP server.
//
// Construction order is significant. Configuration and logging come
// first so every later failure is reported consistently; storage and
// cache come before the services that depend on them; the router is
// assembled last. Stop releases everything in reverse order, and a
// partially constructed application can always be stopped safely.
package app
