package id_test

import (
	"encoding/json"
	"testing"

	"github.com/xraph/atelier/id"
)

func TestNew_HasPrefix(t *testing.T) {
	pid := id.NewProjectID()
	if pid.Prefix() != id.PrefixProject {
		t.Errorf("prefix = %q, want %q", pid.Prefix(), id.PrefixProject)
	}
	if pid.IsNil() {
		t.Error("new ID should not be nil")
	}
}

func TestParse_RoundTrip(t *testing.T) {
	pid := id.NewProjectID()

	parsed, err := id.Parse(pid.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.String() != pid.String() {
		t.Errorf("round trip = %q, want %q", parsed.String(), pid.String())
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestParseWithPrefix_Mismatch(t *testing.T) {
	sub := id.NewSubscriberID()
	if _, err := id.ParseProjectID(sub.String()); err == nil {
		t.Error("expected prefix mismatch error")
	}
}

func TestID_JSONRoundTrip(t *testing.T) {
	pid := id.NewProjectID()

	data, err := json.Marshal(pid)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back id.ID
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.String() != pid.String() {
		t.Errorf("unmarshaled = %q, want %q", back.String(), pid.String())
	}
}

func TestNil_StringEmpty(t *testing.T) {
	if id.Nil.String() != "" {
		t.Errorf("Nil.String() = %q, want empty", id.Nil.String())
	}
	if !id.Nil.IsNil() {
		t.Error("Nil.IsNil() = false, want true")
	}
}
