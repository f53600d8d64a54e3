// Package database provides the SQLite connection backing the telemetry
// spool. SQLite keeps the store-and-forward buffer durable across agent
// restarts without requiring any external service on the device.
package database
