package reload

import (
	"errors"
	"testing"
	"time"

	"github.com/rakunlabs/mockllm/internal/snapshot"
)

func buildOK(n uint64) (*snapshot.Snapshot, []error) {
	return snapshot.NewSnapshot(n, "m1", snapshot.ResponseConfig{}, map[string]*snapshot.Model{}, map[string]*snapshot.Alias{}), nil
}

func buildFail(n uint64) (*snapshot.Snapshot, []error) {
	return nil, []error{errors.New("bad catalog")}
}

func TestNew_InitialBuildSucceeds(t *testing.T) {
	c, errs := New(time.Hour, buildOK, nil)
	if errs != nil {
		t.Fatalf("unexpected errs: %v", errs)
	}
	if c.Current() == nil {
		t.Fatal("Current() is nil after successful initial build")
	}
}

func TestReload_WithinDebounceWindowReturnsFalse(t *testing.T) {
	c, _ := New(time.Hour, buildOK, nil)
	reloaded, errs := c.Reload()
	if reloaded {
		t.Error("Reload() inside debounce window returned true")
	}
	if errs != nil {
		t.Errorf("unexpected errs: %v", errs)
	}
}

func TestReload_AfterWindowFiresRealRebuild(t *testing.T) {
	c, _ := New(10*time.Millisecond, buildOK, nil)
	time.Sleep(20 * time.Millisecond)
	reloaded, errs := c.Reload()
	if !reloaded {
		t.Error("Reload() after window returned false")
	}
	if errs != nil {
		t.Errorf("unexpected errs: %v", errs)
	}
}

func TestReload_FailureLeavesPreviousSnapshotUntouched(t *testing.T) {
	c, errs := New(time.Nanosecond, buildOK, nil)
	if errs != nil {
		t.Fatalf("unexpected errs: %v", errs)
	}
	before := c.Current()

	c.build = buildFail
	time.Sleep(time.Millisecond)
	reloaded, errs := c.Reload()
	if !reloaded {
		t.Error("Reload() should attempt a real rebuild after the window")
	}
	if errs == nil {
		t.Fatal("want errs from a failing build")
	}
	if c.Current() != before {
		t.Error("Current() changed after a failed rebuild")
	}
}

type fakeHistory struct {
	calls int
	last  bool
}

func (f *fakeHistory) RecordReload(_ time.Time, reloaded bool, _ []string) {
	f.calls++
	f.last = reloaded
}

func TestReload_RecordsHistoryOnEveryAttempt(t *testing.T) {
	h := &fakeHistory{}
	c, _ := New(time.Nanosecond, buildOK, h)
	if h.calls != 1 {
		t.Fatalf("calls after initial build = %d, want 1", h.calls)
	}
	time.Sleep(time.Millisecond)
	c.Reload()
	if h.calls != 2 {
		t.Errorf("calls after second reload = %d, want 2", h.calls)
	}
	if !h.last {
		t.Error("last recorded outcome should be success")
	}
}
