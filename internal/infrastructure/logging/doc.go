// Package logging provides structured logging for the Lunchbox device agent.
//
// It wraps log/slog with configuration-driven level and format selection
// and stamps every record with the service name and firmware version.
// Components receive a child logger via With("component", ...).
package logging
