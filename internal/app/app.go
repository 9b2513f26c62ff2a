package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/akbarsahata/LYWSD03MMC/internal/ble"
	"github.com/akbarsahata/LYWSD03MMC/internal/config"
	"github.com/akbarsahata/LYWSD03MMC/internal/httpapi"
	"github.com/akbarsahata/LYWSD03MMC/internal/mqtt"
	"github.com/akbarsahata/LYWSD03MMC/internal/output"
)

func Run(ctx context.Context, cfg config.Config) error {
	logger := slog.Default()

	scanner, err := newScanner(cfg, logger)
	if err != nil {
		return err
	}
	return run(ctx, cfg, scanner, os.Stdout, logger)
}

func newScanner(cfg config.Config, logger *slog.Logger) (ble.Scanner, error) {
	opts := ble.Options{Adapter: cfg.BLEAdapter, Logger: logger}
	switch cfg.BLEBackend {
	case "bluez", "":
		return ble.NewListener(opts), nil
	case "hci":
		return ble.NewHCIScanner(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ble.ErrUnsupportedBackend, cfg.BLEBackend)
	}
}

func run(ctx context.Context, cfg config.Config, scanner ble.Scanner, stdout io.Writer, logger *slog.Logger) error {
	logger.Info("initializing gateway",
		"backend", cfg.BLEBackend,
		"adapter", cfg.BLEAdapter,
		"known_sensors", len(cfg.KnownSensors),
		"byte_order", cfg.PayloadByteOrder,
		"output", cfg.OutputFormat,
		"mqtt_enabled", cfg.MQTTEnabled,
		"http_addr", cfg.HTTPAddr,
	)

	registry, err := ble.NewRegistry(cfg.KnownSensors)
	if err != nil {
		return err
	}
	if registry.Len() == 0 {
		logger.Info("ble: no known sensors configured, accepting every sensor")
	}

	handler := ble.NewHandler(ble.Decoder{Order: cfg.ByteOrder()}, registry, logger)

	sinks := []ble.Sink{output.NewConsole(stdout, output.Format(cfg.OutputFormat))}

	var mqttClient *mqtt.Client
	if cfg.MQTTEnabled {
		mqttClient, err = mqtt.NewClient(cfg, logger)
		if err != nil {
			return err
		}
		defer mqttClient.Disconnect()
		sinks = append(sinks, mqttClient)
	}

	session := ble.NewSession(scanner, handler, output.Multi(sinks...), ble.SessionOptions{
		KeepAlive: cfg.KeepAlive,
		Logger:    logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := session.Run(gctx)
		if err != nil && ble.IsAdapterError(err) {
			logger.Error(ble.AdapterErrorHelpMessage(err))
		}
		return err
	})

	if mqttClient != nil {
		g.Go(func() error {
			// Readings published before the broker is reachable count as sink errors.
			if err := mqttClient.Connect(gctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, mqtt.ErrClientStopped) {
				logger.Error("mqtt connect failed", "error", err)
			}
			return nil
		})
	}

	if cfg.HTTPAddr != "" {
		srv := httpapi.NewServer(cfg.HTTPAddr, httpapi.NewMux(session, registry), logger)
		g.Go(func() error {
			return httpapi.Serve(gctx, srv, logger)
		})
	}

	err = g.Wait()
	logger.Info("gateway shutting down", "stats", session.Stats())
	return err
}
