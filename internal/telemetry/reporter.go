package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/Saakihegde12345/LunchboxMonitoring/internal/iothub"
)

// minInterval is the floor for hub-requested reporting intervals; a
// desired value below this would flood the connection.
const minInterval = time.Second

// Publisher is the outbound boundary, satisfied by *iothub.Session.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Connected() bool
}

// Mirror receives a best-effort local copy of every reading, satisfied
// by *influxdb.Client.
type Mirror interface {
	WriteSensorReading(deviceID string, fields map[string]interface{}, recordedAt time.Time)
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Reporter samples the sensors on a fixed period and publishes each
// reading to the device's telemetry topic. Readings that cannot be
// delivered are spooled and drained once the session is back.
//
// Thread Safety:
//   - Tick runs on the cooperative run loop; SetInterval may be called
//     from broker callback goroutines, so shared state is mutex-guarded.
type Reporter struct {
	deviceID  string
	topic     string
	publisher Publisher
	sampler   Sampler

	spool      *Spool
	spoolBatch int
	mirror     Mirror
	log        Logger

	mu         sync.Mutex
	interval   time.Duration
	lastReport time.Time
}

// NewReporter creates a reporter publishing to the device's
// devices/<id>/messages/events/ topic every interval.
func NewReporter(deviceID string, publisher Publisher, sampler Sampler, interval time.Duration) *Reporter {
	if interval < minInterval {
		interval = minInterval
	}
	return &Reporter{
		deviceID:  deviceID,
		topic:     iothub.Topics{}.Telemetry(deviceID),
		publisher: publisher,
		sampler:   sampler,
		interval:  interval,
	}
}

// SetSpool enables store-and-forward buffering of undeliverable
// readings, draining up to batch entries per reporting cycle.
func (r *Reporter) SetSpool(spool *Spool, batch int) {
	if batch <= 0 {
		batch = 1
	}
	r.spool = spool
	r.spoolBatch = batch
}

// SetMirror enables the local telemetry mirror.
func (r *Reporter) SetMirror(mirror Mirror) {
	r.mirror = mirror
}

// SetLogger sets a logger for reporting diagnostics.
func (r *Reporter) SetLogger(log Logger) {
	r.log = log
}

// SetInterval adjusts the reporting period at runtime. Wired to the
// twin's desired telemetryInterval and the setTelemetryInterval method.
// Non-positive values are ignored; sub-second values are clamped.
func (r *Reporter) SetInterval(seconds int) {
	if seconds <= 0 {
		if r.log != nil {
			r.log.Warn("ignoring non-positive telemetry interval", "seconds", seconds)
		}
		return
	}
	interval := time.Duration(seconds) * time.Second
	if interval < minInterval {
		interval = minInterval
	}

	r.mu.Lock()
	changed := interval != r.interval
	r.interval = interval
	r.mu.Unlock()

	if changed && r.log != nil {
		r.log.Info("telemetry interval updated", "seconds", seconds)
	}
}

// Interval returns the current reporting period.
func (r *Reporter) Interval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

// Tick drives the reporter from the cooperative run loop. It samples and
// publishes when a reporting period has elapsed, and otherwise does
// nothing.
func (r *Reporter) Tick(ctx context.Context, now time.Time) {
	r.mu.Lock()
	if now.Sub(r.lastReport) < r.interval {
		r.mu.Unlock()
		return
	}
	r.lastReport = now
	r.mu.Unlock()

	reading, err := r.sampler.Sample(now)
	if err != nil {
		if r.log != nil {
			r.log.Error("sensor sampling failed", "error", err)
		}
		return
	}

	payload, err := reading.Encode()
	if err != nil {
		if r.log != nil {
			r.log.Error("encoding reading failed", "error", err)
		}
		return
	}

	// The mirror is local and independent of the cloud link.
	if r.mirror != nil {
		r.mirror.WriteSensorReading(r.deviceID, reading.Fields(), reading.RecordedAt)
	}

	if !r.publisher.Connected() {
		r.enqueue(ctx, payload)
		return
	}

	if err := r.publisher.Publish(r.topic, payload); err != nil {
		if r.log != nil {
			r.log.Warn("telemetry publish failed, spooling", "error", err)
		}
		r.enqueue(ctx, payload)
		return
	}

	r.drainSpool(ctx)
}

// enqueue buffers a payload, or drops it with a warning when no spool is
// configured.
func (r *Reporter) enqueue(ctx context.Context, payload []byte) {
	if r.spool == nil {
		if r.log != nil {
			r.log.Warn("session down and no spool configured, dropping reading")
		}
		return
	}
	if err := r.spool.Enqueue(ctx, r.topic, payload); err != nil && r.log != nil {
		r.log.Error("spooling reading failed", "error", err)
	}
}

// drainSpool delivers up to spoolBatch buffered readings, stopping at
// the first failure.
func (r *Reporter) drainSpool(ctx context.Context) {
	if r.spool == nil {
		return
	}

	msgs, err := r.spool.Oldest(ctx, r.spoolBatch)
	if err != nil {
		if r.log != nil {
			r.log.Error("reading spool failed", "error", err)
		}
		return
	}
	if len(msgs) == 0 {
		return
	}

	delivered := 0
	for _, msg := range msgs {
		if err := r.publisher.Publish(msg.Topic, msg.Payload); err != nil {
			break
		}
		if err := r.spool.Delete(ctx, msg.ID); err != nil {
			if r.log != nil {
				r.log.Error("deleting delivered spool entry failed", "id", msg.ID, "error", err)
			}
			break
		}
		delivered++
	}

	if delivered > 0 && r.log != nil {
		r.log.Info("drained spooled telemetry", "delivered", delivered, "remaining", len(msgs)-delivered)
	}
}
