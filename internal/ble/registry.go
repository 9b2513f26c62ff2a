package ble

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/akbarsahata/LYWSD03MMC/internal/utils"
)

// Registry maps sensor identities to display labels. An empty registry accepts every device;
// a non-empty one is also the allowlist. It is never mutated after construction and is safe
// for concurrent use.
type Registry struct {
	labels map[string]string
}

// NewRegistry validates and normalizes entries (MAC -> label).
func NewRegistry(entries map[string]string) (*Registry, error) {
	labels := make(map[string]string, len(entries))
	for addr, label := range entries {
		hw, err := net.ParseMAC(strings.TrimSpace(addr))
		if err != nil {
			return nil, fmt.Errorf("registry: invalid address %q: %w", addr, err)
		}
		if len(hw) != 6 {
			return nil, fmt.Errorf("registry: address %q is not a 6-octet MAC", addr)
		}
		labels[utils.FormatMAC(hw)] = strings.TrimSpace(label)
	}
	return &Registry{labels: labels}, nil
}

// Known reports whether readings from id may be emitted.
func (r *Registry) Known(id string) bool {
	if r == nil || len(r.labels) == 0 {
		return true
	}
	_, ok := r.labels[canonicalAddress(id)]
	return ok
}

// Label returns the configured label for id. An entry with an empty label allowlists the
// device without naming it, so Label reports false for it.
func (r *Registry) Label(id string) (string, bool) {
	if r == nil {
		return "", false
	}
	label, ok := r.labels[canonicalAddress(id)]
	return label, ok && label != ""
}

// Len returns the number of registered sensors.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.labels)
}

// Identities returns the registered addresses in sorted order.
func (r *Registry) Identities() []string {
	if r == nil {
		return nil
	}
	ids := lo.Keys(r.labels)
	slices.Sort(ids)
	return ids
}

func canonicalAddress(id string) string {
	id = strings.TrimSpace(id)
	if hw, err := net.ParseMAC(id); err == nil && len(hw) == 6 {
		return utils.FormatMAC(hw)
	}
	return strings.ToUpper(id)
}
