package instance

import (
	"os"
	"testing"
)

func TestGetIDPrefersWorkerID(t *testing.T) {
	t.Setenv("WORKER_ID", "mail-7")
	t.Setenv("DYNO", "web.1")
	if got := GetID(); got != "mail-7" {
		t.Fatalf("expected mail-7 got %q", got)
	}
}

func TestGetIDFallsBackToDyno(t *testing.T) {
	t.Setenv("WORKER_ID", " ")
	t.Setenv("DYNO", "worker.2")
	if got := GetID(); got != "worker.2" {
		t.Fatalf("expected worker.2 got %q", got)
	}
}

func TestGetIDFallsBackToHostname(t *testing.T) {
	t.Setenv("WORKER_ID", "")
	t.Setenv("DYNO", "")
	want := defaultID
	if host, err := os.Hostname(); err == nil && host != "" {
		want = host
	}
	if got := GetID(); got != want {
		t.Fatalf("expected %q got %q", want, got)
	}
}
