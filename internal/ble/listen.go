package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"
)

const (
	stopScanRetry   = 100 * time.Millisecond
	stopScanTimeout = 5 * time.Second
)

type Options struct {
	Adapter string // "hci0" by default
	Logger  *slog.Logger
}

// Listener scans through tinygo's bluetooth adapter (BlueZ over D-Bus on Linux).
type Listener struct {
	adapter *bluetooth.Adapter
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex
	stopped atomic.Bool
	done    chan struct{}
	errCh   chan error
}

// NewListener binds to the adapter named in opts; the radio is not touched until Start.
func NewListener(opts Options) *Listener {
	if opts.Adapter == "" {
		opts.Adapter = "hci0"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Listener{
		adapter: newAdapter(opts.Adapter, opts.Logger),
		opts:    opts,
		logger:  opts.Logger,
		errCh:   make(chan error, 1),
	}
}

// Start enables the adapter and scans in the background, calling handle from the adapter's
// callback. It is one-shot. Stop blocks until a concurrent Start has returned.
func (l *Listener) Start(ctx context.Context, handle func(Advertisement)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		return errors.New("ble: listener already started")
	}

	l.logger.Info("ble: enabling adapter", "adapter", l.opts.Adapter)
	if err := l.adapter.Enable(); err != nil {
		return fmt.Errorf("ble enable (%s): %w", l.opts.Adapter, err)
	}
	l.logger.Info("ble: adapter enabled", "adapter", l.opts.Adapter)

	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		// adapter.Scan blocks until StopScan() or error.
		err := l.adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
			// A scan that began after StopScan keeps running; stop it again.
			if l.stopped.Load() {
				l.stopScan()
				return
			}
			handle(toAdvertisement(r.Address.String(), r.LocalName(), r.RSSI, r.ServiceData(), r.ManufacturerData()))
		})
		if err != nil && !l.stopped.Load() {
			l.errCh <- fmt.Errorf("ble scan: %w", err)
		}
	}()
	return nil
}

// Stop ends the scan and waits for the adapter's Scan call to return. It is a no-op before
// Start and on repeated calls.
func (l *Listener) Stop() error {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done == nil || !l.stopped.CompareAndSwap(false, true) {
		return nil
	}

	l.stopScan()
	ticker := time.NewTicker(stopScanRetry)
	defer ticker.Stop()
	timeout := time.After(stopScanTimeout)
	for {
		select {
		case <-done:
			l.logger.Info("ble: scanning stopped", "adapter", l.opts.Adapter)
			return nil
		case <-ticker.C:
			l.stopScan()
		case <-timeout:
			return fmt.Errorf("ble: scan on %s did not stop within %s", l.opts.Adapter, stopScanTimeout)
		}
	}
}

// Err delivers the error of a scan that ended without Stop.
func (l *Listener) Err() <-chan error {
	return l.errCh
}

func (l *Listener) stopScan() {
	if err := l.adapter.StopScan(); err != nil {
		if strings.Contains(err.Error(), "no scan in progress") {
			return
		}
		l.logger.Warn("ble: failed to stop scan", "error", err)
	}
}

// toAdvertisement copies a scan result out of the adapter callback.
func toAdvertisement(addr, name string, rssi int16, sd []bluetooth.ServiceDataElement, md []bluetooth.ManufacturerDataElement) Advertisement {
	adv := Advertisement{
		Address:          strings.ToUpper(addr),
		LocalName:        name,
		RSSI:             &rssi,
		ServiceData:      make(map[uuid.UUID][]byte, len(sd)),
		ManufacturerData: make(map[uint16][]byte, len(md)),
	}
	for _, el := range sd {
		id, err := uuid.Parse(el.UUID.String())
		if err != nil {
			continue
		}
		adv.ServiceData[id] = append([]byte(nil), el.Data...)
	}
	for _, el := range md {
		adv.ManufacturerData[el.CompanyID] = append([]byte(nil), el.Data...)
	}
	return adv
}
