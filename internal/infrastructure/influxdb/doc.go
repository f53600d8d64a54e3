// Package influxdb provides the optional local telemetry mirror.
//
// When enabled, every sensor reading published to the hub is also written
// to a local InfluxDB instance so on-site dashboards keep working when
// the cloud link is down. Writes are batched and non-blocking; the mirror
// is best-effort and never holds up the telemetry path.
package influxdb
