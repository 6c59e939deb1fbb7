package testutil

import (
	"strconv"
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TestSync/first_book", "TestSync-first-book"},
		{"Test with spaces!", "Testwithspaces"},
		{strings.Repeat("a", 40), strings.Repeat("a", 30)},
	}
	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUniqueContainerName(t *testing.T) {
	a := UniqueContainerName(t, "defra")
	b := UniqueContainerName(t, "defra")
	if a == b {
		t.Errorf("names should differ: %s", a)
	}
	if !strings.HasPrefix(a, CleanupLabel+"-defra-TestUniqueContainerName-") {
		t.Errorf("unexpected name %q", a)
	}
}

func TestFindFreePort(t *testing.T) {
	port, err := FindFreePort()
	if err != nil {
		t.Fatalf("FindFreePort: %v", err)
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 {
		t.Errorf("port = %q", port)
	}
}
