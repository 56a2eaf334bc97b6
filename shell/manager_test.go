package shell

import (
	"os"
	"sync"
	"testing"
	"time"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

func TestManagerCreateAndGet(t *testing.T) {
	skipWithoutShell(t)

	m := NewManager(testConfig())
	defer m.Close()

	s, err := m.Create("a", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != StateRunning {
		t.Fatalf("expected running session, got %v", s.State())
	}
	if got := m.Get("a"); got != s {
		t.Errorf("expected Get to return the created session")
	}
	if got := m.Get("missing"); got != nil {
		t.Errorf("expected nil for unknown id, got %v", got)
	}
}

func TestManagerCreateDuplicateID(t *testing.T) {
	skipWithoutShell(t)

	m := NewManager(testConfig())
	defer m.Close()

	if _, err := m.Create("a", t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create("a", t.TempDir()); err == nil {
		t.Error("expected error for duplicate session id")
	}
}

func TestManagerCreateConcurrentDuplicateID(t *testing.T) {
	skipWithoutShell(t)

	m := NewManager(testConfig())
	defer m.Close()

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Create("dup", t.TempDir())
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		}
	}
	if created != 1 {
		t.Errorf("expected exactly one Create to win, got %d (errs: %v)", created, errs)
	}
}

func TestManagerRemoveStopsSession(t *testing.T) {
	skipWithoutShell(t)

	m := NewManager(testConfig())
	defer m.Close()

	s, err := m.Create("a", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	m.Remove("a")

	if got := m.Get("a"); got != nil {
		t.Errorf("expected session gone after Remove")
	}
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session not stopped by eviction")
	}
	if s.State() != StateStopped {
		t.Errorf("expected Stopped, got %v", s.State())
	}
}

func TestManagerIdleExpiryStopsSession(t *testing.T) {
	skipWithoutShell(t)

	cfg := testConfig()
	cfg.Session.IdleTTLMinutes = 1

	m := NewManager(cfg)
	defer m.Close()

	// Shrink the TTL under the expiration loop's feet by re-setting the
	// entry; the config unit is minutes, too slow for a test.
	s, err := m.Create("a", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m.cache.Set("a", s, 10*time.Millisecond)

	deadline := time.After(5 * time.Second)
	for m.cache.Has("a") {
		select {
		case <-deadline:
			t.Fatal("entry never expired")
		case <-time.After(10 * time.Millisecond):
		}
	}

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("expired session was not stopped")
	}
}
