package types

import "time"

// Reading is the wire representation of one accepted sensor advertisement,
// published as JSON to MQTT and to the console in json output mode.
type Reading struct {
	Timestamp   time.Time `json:"timestamp"`
	Label       string    `json:"label"`
	Address     string    `json:"address"`
	RSSI        *int16    `json:"rssi_dbm"`
	Temperature float64   `json:"temperature_c"`
	Humidity    uint8     `json:"humidity_pct"`
	Battery     uint8     `json:"battery_pct"`
	BatteryMV   uint16    `json:"battery_mv"`
	Counter     uint8     `json:"packet_counter"`
}
