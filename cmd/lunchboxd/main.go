// Lunchbox Monitoring - device agent
//
// This is the main entry point for the Lunchbox device agent. The agent
// authenticates to the Azure IoT Hub MQTT endpoint with a SAS token,
// publishes sensor telemetry, and services direct methods and device
// twin updates pushed by the cloud side.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Saakihegde12345/LunchboxMonitoring/internal/infrastructure/broker"
	"github.com/Saakihegde12345/LunchboxMonitoring/internal/infrastructure/config"
	"github.com/Saakihegde12345/LunchboxMonitoring/internal/infrastructure/database"
	"github.com/Saakihegde12345/LunchboxMonitoring/internal/infrastructure/influxdb"
	"github.com/Saakihegde12345/LunchboxMonitoring/internal/infrastructure/logging"
	"github.com/Saakihegde12345/LunchboxMonitoring/internal/iothub"
	"github.com/Saakihegde12345/LunchboxMonitoring/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// tickPeriod is the resolution of the cooperative run loop. Session and
// reporter decide internally whether their own intervals have elapsed.
const tickPeriod = time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual agent logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Lunchbox device agent",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// A malformed connection string is the only unrecoverable error:
	// without credentials the device cannot reach the hub at all.
	creds, err := iothub.ParseConnectionString(cfg.Device.ConnectionString)
	if err != nil {
		return fmt.Errorf("parsing connection string: %w", err)
	}
	log.Info("device credentials loaded",
		"host", creds.Host,
		"device_id", creds.DeviceID,
	)

	// Telemetry spool (optional)
	var spool *telemetry.Spool
	if cfg.Telemetry.SpoolEnabled {
		db, openErr := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if openErr != nil {
			return fmt.Errorf("opening spool database: %w", openErr)
		}
		defer func() {
			log.Info("closing spool database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing spool database", "error", closeErr)
			}
		}()

		spool, err = telemetry.NewSpool(ctx, db)
		if err != nil {
			return fmt.Errorf("preparing telemetry spool: %w", err)
		}
		log.Info("telemetry spool ready", "path", db.Path())
	} else {
		log.Info("telemetry spool disabled")
	}

	// Local telemetry mirror (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB mirror connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB mirror disabled")
	}

	// Transport
	client := broker.New(broker.Config{
		Host:           creds.Host,
		Port:           cfg.Hub.Port,
		DisableTLS:     cfg.Hub.DisableTLS,
		QoS:            byte(cfg.Hub.QoS),
		ConnectTimeout: cfg.GetConnectTimeout(),
	})
	client.SetLogger(log.With("component", "broker"))

	// Router with the device's fixed metadata
	router := iothub.NewRouter(iothub.DeviceInfo{
		DeviceID:        creds.DeviceID,
		Model:           cfg.Device.Model,
		Manufacturer:    cfg.Device.Manufacturer,
		FirmwareVersion: version,
	})
	router.SetLogger(log.With("component", "router"))

	// Session
	session := iothub.NewSession(creds, client, router, iothub.SessionConfig{
		PolicyName:        cfg.Hub.PolicyName,
		APIVersion:        cfg.Hub.APIVersion,
		TokenTTL:          cfg.GetTokenTTL(),
		ReconnectInterval: cfg.GetReconnectInterval(),
		DisableAuth:       cfg.Hub.DisableAuth,
	})
	session.SetLogger(log.With("component", "session"))
	defer session.Close()

	// Telemetry reporter
	sampler := telemetry.NewSimulatedSampler(creds.DeviceID)
	reporter := telemetry.NewReporter(creds.DeviceID, session, sampler, cfg.GetTelemetryInterval())
	reporter.SetLogger(log.With("component", "telemetry"))
	if spool != nil {
		reporter.SetSpool(spool, cfg.Telemetry.SpoolBatch)
	}
	if influxClient != nil {
		reporter.SetMirror(influxClient)
	}

	// The hub adjusts the reporting rate two ways: via the twin's
	// desired telemetryInterval and via the setTelemetryInterval method.
	router.OnTelemetryInterval(reporter.SetInterval)
	router.Register("setTelemetryInterval", func(_ string, payload map[string]any) iothub.MethodResponse {
		seconds, ok := payload["seconds"].(float64)
		if !ok || seconds <= 0 {
			return iothub.MethodResponse{
				Status: 400,
				Body: map[string]any{
					"status":  "error",
					"method":  "setTelemetryInterval",
					"message": "a positive numeric 'seconds' field is required",
				},
			}
		}
		reporter.SetInterval(int(seconds))
		return iothub.MethodResponse{
			Status: iothub.StatusOK,
			Body: map[string]any{
				"status":  "success",
				"method":  "setTelemetryInterval",
				"seconds": int(seconds),
			},
		}
	})

	log.Info("initialisation complete, entering run loop",
		"telemetry_interval", cfg.GetTelemetryInterval().String(),
		"reconnect_interval", cfg.GetReconnectInterval().String(),
	)

	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			return nil
		case now := <-ticker.C:
			session.Tick(now)
			reporter.Tick(ctx, now)
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses LUNCHBOX_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUNCHBOX_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
