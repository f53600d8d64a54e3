package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSensorReading mirrors one telemetry reading locally.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Readings written while disconnected are silently dropped: the mirror is
// best-effort, the cloud path (with its SQLite spool) is authoritative.
//
// Parameters:
//   - deviceID: The device the reading belongs to
//   - fields: Sensor values (e.g. "temperature": 21.5, "motion": true)
//   - recordedAt: When the reading was taken
func (c *Client) WriteSensorReading(deviceID string, fields map[string]interface{}, recordedAt time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_readings",
		map[string]string{
			"device_id": deviceID,
		},
		fields,
		recordedAt,
	)

	c.writeAPI.WritePoint(point)
}

// WriteAgentMetric records an agent operational metric (e.g. spool depth,
// reconnect count) for local dashboards.
func (c *Client) WriteAgentMetric(deviceID string, metric string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"agent_metrics",
		map[string]string{
			"device_id": deviceID,
			"metric":    metric,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
