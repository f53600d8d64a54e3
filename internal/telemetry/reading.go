package telemetry

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Reading is one telemetry sample, serialized as the device-to-cloud
// event payload. Field names match the cloud side's sensor types
// (temperature, humidity, gas, battery, proximity, motion).
type Reading struct {
	// DeviceID identifies the reporting device.
	DeviceID string `json:"deviceId"`

	// Temperature is the box-internal temperature in °C.
	Temperature float64 `json:"temperature"`

	// Humidity is the relative humidity in %.
	Humidity float64 `json:"humidity"`

	// Gas is the gas sensor level in ppm (food spoilage indicator).
	Gas float64 `json:"gas"`

	// Battery is the remaining battery charge in %.
	Battery float64 `json:"battery"`

	// Proximity is the lid distance sensor value in cm.
	Proximity float64 `json:"proximity"`

	// Motion reports whether the PIR sensor detected movement.
	Motion bool `json:"motion"`

	// RecordedAt is when the reading was taken (UTC, ISO8601).
	RecordedAt time.Time `json:"recordedAt"`
}

// Encode serializes the reading for publishing.
func (r Reading) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding reading: %w", err)
	}
	return data, nil
}

// Fields returns the numeric sensor values keyed by name, for the
// InfluxDB mirror.
func (r Reading) Fields() map[string]interface{} {
	return map[string]interface{}{
		"temperature": r.Temperature,
		"humidity":    r.Humidity,
		"gas":         r.Gas,
		"battery":     r.Battery,
		"proximity":   r.Proximity,
		"motion":      r.Motion,
	}
}

// Sampler produces sensor readings.
type Sampler interface {
	Sample(now time.Time) (Reading, error)
}

// Simulation constants, tuned to stay within the cloud side's alert
// thresholds most of the time.
const (
	simBaseTemperature = 8.0
	simBaseHumidity    = 55.0
	simBaseGas         = 120.0
	simBaseProximity   = 4.0

	simBatteryStart     = 100.0
	simBatteryDrainPerH = 0.8

	simMotionProbability = 0.05
)

// SimulatedSampler generates plausible drifting sensor values. The
// original firmware ran under the Wokwi simulator; this keeps the agent
// runnable end-to-end without peripherals.
type SimulatedSampler struct {
	deviceID string
	rng      *rand.Rand
	started  time.Time
}

// NewSimulatedSampler creates a sampler seeded from the clock.
func NewSimulatedSampler(deviceID string) *SimulatedSampler {
	now := time.Now()
	return &SimulatedSampler{
		deviceID: deviceID,
		rng:      rand.New(rand.NewSource(now.UnixNano())),
		started:  now,
	}
}

// Sample returns the next simulated reading.
func (s *SimulatedSampler) Sample(now time.Time) (Reading, error) {
	hours := now.Sub(s.started).Hours()
	battery := math.Max(0, simBatteryStart-hours*simBatteryDrainPerH)

	return Reading{
		DeviceID:    s.deviceID,
		Temperature: simBaseTemperature + s.rng.Float64()*4 - 2,
		Humidity:    simBaseHumidity + s.rng.Float64()*10 - 5,
		Gas:         simBaseGas + s.rng.Float64()*40 - 20,
		Battery:     battery,
		Proximity:   simBaseProximity + s.rng.Float64()*2 - 1,
		Motion:      s.rng.Float64() < simMotionProbability,
		RecordedAt:  now.UTC(),
	}, nil
}
