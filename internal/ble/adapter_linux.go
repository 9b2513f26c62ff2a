package ble

import (
	"log/slog"
	"strings"

	"tinygo.org/x/bluetooth"
)

func newAdapter(id string, _ *slog.Logger) *bluetooth.Adapter {
	return bluetooth.NewAdapter(id)
}

// IsAdapterError reports whether err means BlueZ or D-Bus is not reachable.
func IsAdapterError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	// D-Bus not found
	if strings.Contains(msg, "dbus") && strings.HasSuffix(msg, "no such file or directory") {
		return true
	}
	// D-Bus is running but org.bluez is not found
	return strings.Contains(msg, "The name org.bluez was not provided by any .service files")
}

func AdapterErrorHelpMessage(err error) string {
	return "Failed to initialize BLE adapter: \n\t" + err.Error() + "\n" +
		"Make sure bluez and dbus are installed and running.\n" +
		"If running in a container, make sure the container has access to the host's D-Bus socket. (e.g. -v /var/run/dbus:/var/run/dbus)"
}
