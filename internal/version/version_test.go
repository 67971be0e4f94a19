package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	v := Get()
	if v == "" {
		t.Fatal("Get() returned empty version")
	}
	if strings.TrimSpace(v) != v {
		t.Errorf("Get() = %q, not trimmed", v)
	}
}

func TestFull(t *testing.T) {
	if !strings.HasPrefix(Full(), Get()) {
		t.Errorf("Full() = %q, want prefix %q", Full(), Get())
	}
}
