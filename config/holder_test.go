package config_test

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/relay/config"
)

func TestHolder_Get(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get() returned nil")
	}
	if got.Mediator.HTTP.Timeout != 5*time.Second {
		t.Errorf("timeout = %s, want 5s", got.Mediator.HTTP.Timeout)
	}
}

func TestHolder_HTTPSettingsSnapshot(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	defer h.Stop()

	s := h.HTTPSettings()
	if uri, ok := s.BaseURI("Billing.CreateInvoice"); !ok || uri != "http://billing-fallback.internal" {
		t.Errorf("BaseURI via wildcard = %q, %v", uri, ok)
	}
}

func TestHolder_ReloadSwapsConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	defer h.Stop()

	var notified int
	h.OnChange(func(*config.Config) { notified++ })

	updated := `
mediator:
  http:
    endpoints:
      "*": "http://elsewhere.internal"
    timeout: 9s
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if got := h.Get().Mediator.HTTP.Timeout; got != 9*time.Second {
		t.Errorf("timeout after reload = %s, want 9s", got)
	}
	if notified != 1 {
		t.Errorf("OnChange fired %d times, want 1", notified)
	}
}

func TestHolder_ReloadKeepsOldConfigOnError(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	defer h.Stop()

	if err := os.WriteFile(path, []byte("cache:\n  store: redis\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := h.Reload(); err == nil {
		t.Fatal("Reload() = nil error for invalid config")
	}

	if got := h.Get().Mediator.HTTP.Timeout; got != 5*time.Second {
		t.Errorf("timeout = %s, want old value 5s preserved", got)
	}
}

func TestHolder_ConcurrentGet(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	defer h.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if h.Get() == nil {
					t.Error("Get() returned nil")
					return
				}
				_ = h.HTTPSettings()
			}
		}()
	}
	for i := 0; i < 5; i++ {
		h.Reload()
	}
	wg.Wait()
}

func TestHolder_WatchFileReloads(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	defer h.Stop()

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile() error = %v", err)
	}

	updated := `
mediator:
  http:
    endpoints:
      "*": "http://watched.internal"
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if uri, _ := h.HTTPSettings().BaseURI("Any.Thing"); uri == "http://watched.internal" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("config change was not picked up by the file watcher")
}
