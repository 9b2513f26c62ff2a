//go:build !linux

package ble

import (
	goble "github.com/go-ble/ble"
)

func newHCIDevice(_ string) (goble.Device, error) {
	return nil, ErrUnsupportedBackend
}
