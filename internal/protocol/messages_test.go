package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/whisper/phlash/internal/flash"
)

// ---------------------------------------------------------------------------
// Test: Parsing flash requests
// ---------------------------------------------------------------------------

func TestParseFlashRequest_Later(t *testing.T) {
	input := []byte(`{"bag":"later","key":"success","value":"Profile saved"}`)

	req, err := ParseFlashRequest(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Bag != flash.Later {
		t.Errorf("expected bag later, got %v", req.Bag)
	}
	if req.Key != "success" {
		t.Errorf("expected key %q, got %q", "success", req.Key)
	}
	if req.Append {
		t.Error("expected append=false")
	}
	v, err := req.Decoded()
	if err != nil {
		t.Fatalf("Decoded() error: %v", err)
	}
	if v != "Profile saved" {
		t.Errorf("expected value %q, got %v", "Profile saved", v)
	}
}

func TestParseFlashRequest_StructuredValue(t *testing.T) {
	input := []byte(`{"bag":"now","key":"form","value":{"field":"email","errors":2},"append":true}`)

	req, err := ParseFlashRequest(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Bag != flash.Now || !req.Append {
		t.Errorf("unexpected request: %+v", req)
	}
	v, err := req.Decoded()
	if err != nil {
		t.Fatalf("Decoded() error: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected map value, got %T", v)
	}
	if m["field"] != "email" || m["errors"] != float64(2) {
		t.Errorf("unexpected value: %v", m)
	}
}

func TestParseFlashRequest_MissingValueIsNil(t *testing.T) {
	req, err := ParseFlashRequest([]byte(`{"bag":"now","key":"k"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := req.Decoded()
	if err != nil || v != nil {
		t.Errorf("Decoded() = %v, %v; want nil, nil", v, err)
	}

	req, err = ParseFlashRequest([]byte(`{"bag":"now","key":"k","value":null}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := req.Decoded(); v != nil {
		t.Errorf("expected explicit null to decode to nil, got %v", v)
	}
}

// ---------------------------------------------------------------------------
// Test: Rejected requests
// ---------------------------------------------------------------------------

func TestParseFlashRequest_UnknownBag(t *testing.T) {
	_, err := ParseFlashRequest([]byte(`{"bag":"tomorrow","key":"k","value":1}`))
	if !errors.Is(err, flash.ErrUnknownBag) {
		t.Fatalf("expected ErrUnknownBag, got %v", err)
	}
}

func TestParseFlashRequest_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":      `{bag:`,
		"missing bag":   `{"key":"k","value":1}`,
		"missing key":   `{"bag":"now","value":1}`,
		"empty key":     `{"bag":"now","key":"","value":1}`,
		"unknown field": `{"bag":"now","key":"k","value":1,"ttl":5}`,
		"long key":      `{"bag":"now","key":"` + strings.Repeat("k", MaxKeyLength+1) + `"}`,
	}
	for name, input := range cases {
		if _, err := ParseFlashRequest([]byte(input)); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
}

// ---------------------------------------------------------------------------
// Test: Responses
// ---------------------------------------------------------------------------

func TestNewResponse_InjectsType(t *testing.T) {
	out, err := NewResponse(TypeMessages, MessagesMsg{
		Messages: map[string]any{"warning": "W1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded MessagesMsg
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.Type != TypeMessages {
		t.Errorf("expected type %q, got %q", TypeMessages, decoded.Type)
	}
	if decoded.Messages["warning"] != "W1" {
		t.Errorf("expected warning=W1, got %v", decoded.Messages)
	}
}

func TestNewResponse_OverridesPayloadType(t *testing.T) {
	out, err := NewResponse(TypeError, ErrorMsg{Type: "bogus", Code: CodeInvalidRequest, Message: "bad"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded ErrorMsg
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.Type != TypeError || decoded.Code != CodeInvalidRequest {
		t.Errorf("unexpected response: %+v", decoded)
	}
}

func TestNewResponse_Unmarshalable(t *testing.T) {
	if _, err := NewResponse(TypeError, make(chan int)); err == nil {
		t.Error("expected error for unmarshalable payload")
	}
}
