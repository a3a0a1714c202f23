package config

import (
	"testing"
	"time"
)

func TestGetEnvDurationAcceptsGoDurationString(t *testing.T) {
	t.Setenv("TEST_DURATION", "1h")
	if got := getEnvDuration("TEST_DURATION", 0); got != time.Hour {
		t.Errorf("got %v, want 1h", got)
	}
}

func TestGetEnvDurationAcceptsBareSeconds(t *testing.T) {
	t.Setenv("TEST_DURATION", "15")
	if got := getEnvDuration("TEST_DURATION", 0); got != 15*time.Second {
		t.Errorf("got %v, want 15s", got)
	}
}

func TestGetEnvDurationFallsBackToDefault(t *testing.T) {
	if got := getEnvDuration("TEST_DURATION_UNSET", 5*time.Second); got != 5*time.Second {
		t.Errorf("got %v, want the 5s default", got)
	}
}

func TestGetEnvIntFallsBackOnUnparseable(t *testing.T) {
	t.Setenv("TEST_INT", "not-a-number")
	if got := getEnvInt("TEST_INT", 7); got != 7 {
		t.Errorf("got %d, want the fallback 7", got)
	}
}
