package ble

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	goble "github.com/go-ble/ble"
	"github.com/google/uuid"
)

// ErrUnsupportedBackend is returned when a radio backend is not available on this platform.
var ErrUnsupportedBackend = errors.New("ble: backend not supported on this platform")

// HCIScanner scans through a raw HCI socket with go-ble, bypassing BlueZ.
type HCIScanner struct {
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	device goble.Device
	cancel context.CancelFunc
	done   chan struct{}
	errCh  chan error
}

// NewHCIScanner prepares a scanner for the adapter in opts; the HCI socket is opened by Start.
func NewHCIScanner(opts Options) *HCIScanner {
	if opts.Adapter == "" {
		opts.Adapter = "hci0"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &HCIScanner{
		opts:   opts,
		logger: opts.Logger,
		errCh:  make(chan error, 1),
	}
}

// Start opens the HCI device and runs a passive scan in the background. It is one-shot.
func (s *HCIScanner) Start(ctx context.Context, handle func(Advertisement)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return errors.New("ble: hci scanner already started")
	}

	device, err := newHCIDevice(s.opts.Adapter)
	if err != nil {
		return fmt.Errorf("ble: open %s: %w", s.opts.Adapter, err)
	}
	s.logger.Info("ble: hci device opened", "adapter", s.opts.Adapter)

	scanCtx, cancel := context.WithCancel(context.Background())
	s.device = device
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		err := device.Scan(scanCtx, true, func(a goble.Advertisement) {
			handle(fromGoble(a))
		})
		if err != nil && scanCtx.Err() == nil {
			s.errCh <- fmt.Errorf("ble scan: %w", err)
		}
	}()
	return nil
}

// Stop cancels the scan, waits for it to return and closes the device. It is a no-op before
// Start and on repeated calls.
func (s *HCIScanner) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil || s.device == nil {
		return nil
	}

	s.cancel()
	<-s.done

	device := s.device
	s.device = nil
	if err := device.Stop(); err != nil {
		return fmt.Errorf("ble: failed to stop device: %w", err)
	}
	s.logger.Info("ble: hci device closed", "adapter", s.opts.Adapter)
	return nil
}

// Err delivers the error of a scan that ended without Stop.
func (s *HCIScanner) Err() <-chan error {
	return s.errCh
}

func fromGoble(a goble.Advertisement) Advertisement {
	rssi := int16(a.RSSI())
	adv := Advertisement{
		LocalName:        a.LocalName(),
		RSSI:             &rssi,
		ServiceData:      make(map[uuid.UUID][]byte),
		ManufacturerData: make(map[uint16][]byte),
	}
	if addr := a.Addr(); addr != nil {
		adv.Address = strings.ToUpper(addr.String())
	}
	for _, sd := range a.ServiceData() {
		id, ok := uuidFromGoble(sd.UUID)
		if !ok {
			continue
		}
		adv.ServiceData[id] = append([]byte(nil), sd.Data...)
	}
	if companyID, data, ok := splitManufacturerData(a.ManufacturerData()); ok {
		adv.ManufacturerData[companyID] = data
	}
	return adv
}

// uuidFromGoble converts go-ble's little-endian UUID (16, 32 or 128 bit) to its canonical form.
func uuidFromGoble(u goble.UUID) (uuid.UUID, bool) {
	switch len(u) {
	case 2:
		return UUID16(binary.LittleEndian.Uint16(u)), true
	case 4:
		id := bluetoothBaseUUID
		binary.BigEndian.PutUint32(id[0:4], binary.LittleEndian.Uint32(u))
		return id, true
	case 16:
		id, err := uuid.FromBytes(goble.Reverse(u))
		return id, err == nil
	default:
		return uuid.UUID{}, false
	}
}

// splitManufacturerData splits the little-endian company identifier off a copy of the data.
func splitManufacturerData(b []byte) (uint16, []byte, bool) {
	if len(b) < 2 {
		return 0, nil, false
	}
	return binary.LittleEndian.Uint16(b[0:2]), append([]byte(nil), b[2:]...), true
}
