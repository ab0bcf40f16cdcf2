// Package app wires the dashboard together and manages its lifecycle.
//
// NewApplication builds, in order: the slog logger, OpenTelemetry providers
// and dashboard metrics, the websocket hub, the dashboard and health
// services, and the chi router with its middleware chain. Run serves until
// the context is cancelled or SIGINT/SIGTERM arrives, then shuts the HTTP
// server, websocket hub and telemetry down in that order.
//
// The app never calls os.Exit; errors are returned to the command.
package app
