// Package protocol defines the JSON bodies exchanged with the flash HTTP API.
// Responses follow a consistent envelope with a "type" discriminator so that
// clients can tell data from errors without inspecting the status code.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/whisper/phlash/internal/flash"
)

// ---------------------------------------------------------------------------
// Response type constants
// ---------------------------------------------------------------------------

const (
	TypeMessages    = "messages"
	TypeRateLimited = "rate_limited"
	TypeError       = "error"
)

// Error codes carried in ErrorMsg.
const (
	CodeInvalidRequest = "invalid_request"
	CodeInternal       = "internal"
)

// MaxKeyLength bounds flash keys accepted from clients.
const MaxKeyLength = 128

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// FlashRequest asks the server to flash Value under Key into Bag. When Append
// is set the value is pushed onto a message list instead of replacing it.
type FlashRequest struct {
	Bag    flash.Bag       `json:"bag"`
	Key    string          `json:"key"`
	Value  json.RawMessage `json:"value"`
	Append bool            `json:"append,omitempty"`
}

// Decoded returns Value as a generic Go value. A missing value decodes to nil.
func (r FlashRequest) Decoded() (any, error) {
	if len(r.Value) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(r.Value, &v); err != nil {
		return nil, fmt.Errorf("protocol: failed to decode value: %w", err)
	}
	return v, nil
}

// ParseFlashRequest decodes and validates a flash request body. The bag field
// is required; an unknown bag yields an error wrapping flash.ErrUnknownBag.
func ParseFlashRequest(data []byte) (FlashRequest, error) {
	var partial struct {
		Bag *string `json:"bag"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return FlashRequest{}, fmt.Errorf("protocol: failed to parse request: %w", err)
	}
	if partial.Bag == nil {
		return FlashRequest{}, errors.New("protocol: missing \"bag\" field")
	}

	var req FlashRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return FlashRequest{}, fmt.Errorf("protocol: failed to decode request: %w", err)
	}
	if req.Key == "" {
		return FlashRequest{}, errors.New("protocol: missing or empty \"key\" field")
	}
	if len(req.Key) > MaxKeyLength {
		return FlashRequest{}, fmt.Errorf("protocol: key longer than %d bytes", MaxKeyLength)
	}
	return req, nil
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// MessagesMsg carries the now bag of the current request.
type MessagesMsg struct {
	Type     string         `json:"type"`
	Messages map[string]any `json:"messages"`
}

// RateLimitedMsg is returned when the session has written too many flashes.
type RateLimitedMsg struct {
	Type       string `json:"type"`
	RetryAfter int    `json:"retry_after"`
}

// ErrorMsg communicates an error condition.
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewResponse JSON-encodes payload with msgType injected under the "type" key.
func NewResponse(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal payload: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("protocol: failed to unmarshal payload into map: %w", err)
	}

	m["type"] = msgType

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal response: %w", err)
	}
	return out, nil
}
