//go:build !linux

package ble

import (
	"log/slog"

	"tinygo.org/x/bluetooth"
)

func newAdapter(id string, logger *slog.Logger) *bluetooth.Adapter {
	if id != "" && id != "hci0" {
		logger.Warn("ble: adapter id is only supported on linux, using default adapter", "adapter", id)
	}
	return bluetooth.DefaultAdapter
}

func IsAdapterError(_ error) bool {
	return false
}

func AdapterErrorHelpMessage(err error) string {
	return err.Error()
}
