// Package telemetry handles sensor sampling and cloud reporting for the
// Lunchbox device agent.
//
// This package manages:
//   - The Reading payload published to devices/<id>/messages/events/
//   - Interval-driven reporting, adjustable at runtime from the twin's
//     desired telemetryInterval
//   - A SQLite store-and-forward spool for readings taken while the hub
//     session is down
//   - An optional best-effort mirror of readings into local InfluxDB
//
// # Architecture
//
// The Reporter is driven by the same cooperative run loop as the hub
// session: one Tick per second, with the Reporter deciding internally
// whether a reporting period has elapsed. Samplers are an interface so
// the agent runs identically against real peripherals and the built-in
// simulation (the original device ran under Wokwi).
package telemetry
