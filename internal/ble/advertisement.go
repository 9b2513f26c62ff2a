package ble

import (
	"github.com/google/uuid"
)

// bluetoothBaseUUID is the Bluetooth SIG base UUID that 16-bit assigned numbers are expanded into.
var bluetoothBaseUUID = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

// EnvironmentalSensingUUID is the 0x181A service whose service data carries the sensor payload.
var EnvironmentalSensingUUID = UUID16(0x181A)

// UUID16 expands a 16-bit assigned number into its 128-bit form.
func UUID16(v uint16) uuid.UUID {
	u := bluetoothBaseUUID
	u[2] = byte(v >> 8)
	u[3] = byte(v)
	return u
}

// Advertisement is a single observed broadcast as delivered by a radio backend.
// It is only valid for the duration of the delivery; bytes that outlive it must be copied.
type Advertisement struct {
	Address   string
	LocalName string
	// RSSI is nil when the platform does not report signal strength.
	RSSI             *int16
	ServiceData      map[uuid.UUID][]byte
	ManufacturerData map[uint16][]byte
}

// Service returns the service data registered under id.
func (a Advertisement) Service(id uuid.UUID) ([]byte, bool) {
	data, ok := a.ServiceData[id]
	return data, ok
}

// Manufacturer returns the manufacturer data registered under companyID.
func (a Advertisement) Manufacturer(companyID uint16) ([]byte, bool) {
	data, ok := a.ManufacturerData[companyID]
	return data, ok
}
