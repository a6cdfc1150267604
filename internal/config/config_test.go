package config

import (
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	t.Run("variable set", func(t *testing.T) {
		t.Setenv("TEST_REQUIRED", "value")
		if got := requireEnv("TEST_REQUIRED"); got != "value" {
			t.Errorf("requireEnv() = %q, want %q", got, "value")
		}
	})

	t.Run("variable missing panics", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("requireEnv() should have panicked")
			}
		}()
		requireEnv("TEST_REQUIRED_MISSING")
	})
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   int
		want  int
	}{
		{name: "valid integer", value: "42", def: 1, want: 42},
		{name: "invalid integer uses default", value: "nope", def: 7, want: 7},
		{name: "missing uses default", value: "", def: 9, want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_INT", tt.value)
			}
			if got := getenvInt("TEST_INT", tt.def); got != tt.want {
				t.Errorf("getenvInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   time.Duration
		want  time.Duration
	}{
		{name: "valid duration", value: "5s", def: time.Second, want: 5 * time.Second},
		{name: "invalid duration uses default", value: "soon", def: 10 * time.Second, want: 10 * time.Second},
		{name: "missing uses default", value: "", def: 15 * time.Second, want: 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_DURATION", tt.value)
			}
			if got := mustDuration("TEST_DURATION", tt.def); got != tt.want {
				t.Errorf("mustDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMustLocation(t *testing.T) {
	t.Run("missing uses default", func(t *testing.T) {
		if got := mustLocation("TEST_TZ_MISSING", time.UTC); got != time.UTC {
			t.Errorf("mustLocation() = %v, want UTC", got)
		}
	})

	t.Run("valid zone", func(t *testing.T) {
		t.Setenv("TEST_TZ", "Europe/Paris")
		got := mustLocation("TEST_TZ", time.UTC)
		if got.String() != "Europe/Paris" {
			t.Errorf("mustLocation() = %v, want Europe/Paris", got)
		}
	})

	t.Run("invalid zone panics", func(t *testing.T) {
		t.Setenv("TEST_TZ_BAD", "Mars/Olympus")
		defer func() {
			if r := recover(); r == nil {
				t.Error("mustLocation() should have panicked")
			}
		}()
		mustLocation("TEST_TZ_BAD", time.UTC)
	})
}
