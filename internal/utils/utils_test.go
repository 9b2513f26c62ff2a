package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"state": "scanning"})

	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, http.StatusCreated, w.Code)

	var got map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "scanning", got["state"])
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusServiceUnavailable, "session stopped")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))

	var got map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, http.StatusText(http.StatusServiceUnavailable), got["error"])
	assert.Equal(t, "session stopped", got["message"])
}

func TestWriteError_NoRetryAfterForClientErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadRequest, "bad")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get("Retry-After"))
}

func TestFormatMAC(t *testing.T) {
	assert.Equal(t, "A4:C1:38:E2:3C:8B", FormatMAC([]byte{0xA4, 0xC1, 0x38, 0xE2, 0x3C, 0x8B}))
	assert.Equal(t, "0F", FormatMAC([]byte{0x0F}))
	assert.Equal(t, "", FormatMAC(nil))
}

func TestBytesToHex(t *testing.T) {
	assert.Equal(t, "A4C138", BytesToHex([]byte{0xA4, 0xC1, 0x38}))
	assert.Equal(t, "", BytesToHex(nil))
}
