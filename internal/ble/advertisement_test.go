package ble

import (
	"testing"

	goble "github.com/go-ble/ble"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/bluetooth"
)

func TestUUID16(t *testing.T) {
	assert.Equal(t, "0000181a-0000-1000-8000-00805f9b34fb", EnvironmentalSensingUUID.String())
	assert.Equal(t, uuid.MustParse("0000fe95-0000-1000-8000-00805f9b34fb"), UUID16(0xFE95))
}

func TestAdvertisement_Lookups(t *testing.T) {
	adv := Advertisement{
		ServiceData:      map[uuid.UUID][]byte{EnvironmentalSensingUUID: {0x01}},
		ManufacturerData: map[uint16][]byte{0x0001: {0x02}},
	}

	data, ok := adv.Service(EnvironmentalSensingUUID)
	require.True(t, ok)
	assert.Equal(t, []byte{0x01}, data)

	_, ok = adv.Service(UUID16(0x180F))
	assert.False(t, ok)

	data, ok = adv.Manufacturer(0x0001)
	require.True(t, ok)
	assert.Equal(t, []byte{0x02}, data)

	_, ok = Advertisement{}.Manufacturer(0x0001)
	assert.False(t, ok)
}

func TestToAdvertisement(t *testing.T) {
	payload := sensorPayload(knownMAC)
	mfg := []byte{0x01, 0xD0}

	adv := toAdvertisement("a4:c1:38:e2:3c:8b", "ATC_E23C8B", -64,
		[]bluetooth.ServiceDataElement{{UUID: bluetooth.New16BitUUID(0x181A), Data: payload}},
		[]bluetooth.ManufacturerDataElement{{CompanyID: 0xFFFF, Data: mfg}},
	)

	assert.Equal(t, "A4:C1:38:E2:3C:8B", adv.Address)
	assert.Equal(t, "ATC_E23C8B", adv.LocalName)
	require.NotNil(t, adv.RSSI)
	assert.Equal(t, int16(-64), *adv.RSSI)

	data, ok := adv.Service(EnvironmentalSensingUUID)
	require.True(t, ok)
	assert.Equal(t, payload, data)

	// Bytes are copied out of the adapter's buffers.
	payload[0] = 0x00
	mfg[0] = 0x00
	assert.Equal(t, byte(0xA4), data[0])
	got, _ := adv.Manufacturer(0xFFFF)
	assert.Equal(t, []byte{0x01, 0xD0}, got)
}

func TestUUIDFromGoble(t *testing.T) {
	tests := []struct {
		name string
		in   goble.UUID
		want uuid.UUID
		ok   bool
	}{
		{name: "16-bit", in: goble.UUID16(0x181A), want: EnvironmentalSensingUUID, ok: true},
		{name: "32-bit", in: goble.UUID{0x1A, 0x18, 0x00, 0x00}, want: EnvironmentalSensingUUID, ok: true},
		{name: "128-bit", in: goble.MustParse("0000181a-0000-1000-8000-00805f9b34fb"), want: EnvironmentalSensingUUID, ok: true},
		{name: "invalid", in: goble.UUID{0x01, 0x02, 0x03}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := uuidFromGoble(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSplitManufacturerData(t *testing.T) {
	id, data, ok := splitManufacturerData([]byte{0x8D, 0x02, 0x2A, 0x01})
	require.True(t, ok)
	assert.Equal(t, uint16(0x028D), id)
	assert.Equal(t, []byte{0x2A, 0x01}, data)

	_, _, ok = splitManufacturerData([]byte{0x8D})
	assert.False(t, ok)
}
