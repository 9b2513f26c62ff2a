package ble

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	goble "github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci/cmd"
)

const hciTimeout = 20 * time.Second

var hciScanParams = cmd.LESetScanParameters{
	LEScanType:           0,    // Passive scanning
	LEScanInterval:       0x10, // 10ms
	LEScanWindow:         0x10, // 10ms
	OwnAddressType:       0,    // Static
	ScanningFilterPolicy: 0,    // Accept all
}

func newHCIDevice(adapter string) (goble.Device, error) {
	id, err := hciDeviceID(adapter)
	if err != nil {
		return nil, err
	}
	device, err := linux.NewDevice(
		goble.OptDeviceID(id),
		goble.OptListenerTimeout(hciTimeout),
		goble.OptDialerTimeout(hciTimeout),
		goble.OptScanParams(hciScanParams),
	)
	if err != nil {
		return nil, err
	}
	return device, nil
}

// hciDeviceID maps "hci0" (or "0") to the HCI device index.
func hciDeviceID(adapter string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(adapter, "hci"))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid hci adapter %q", adapter)
	}
	return id, nil
}
