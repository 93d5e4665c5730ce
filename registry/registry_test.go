package registry_test

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xraph/atelier"
	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/project"
	"github.com/xraph/atelier/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRegistry() *registry.Registry {
	return registry.New(registry.WithLogger(testLogger()))
}

func TestRegister_Duplicate(t *testing.T) {
	r := newRegistry()
	p := project.New("req")

	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(p); !errors.Is(err, atelier.ErrDuplicateProject) {
		t.Errorf("second Register error = %v, want ErrDuplicateProject", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestGet_NotFound(t *testing.T) {
	r := newRegistry()
	if _, err := r.Get(id.NewProjectID()); !errors.Is(err, atelier.ErrProjectNotFound) {
		t.Errorf("Get error = %v, want ErrProjectNotFound", err)
	}
}

func TestGet_ReturnsSnapshot(t *testing.T) {
	r := newRegistry()
	p := project.New("req")
	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	snap, err := r.Get(p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	snap.AppendMessage("x", "local only")
	snap.Requirements = "tampered"

	again, err := r.Get(p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(again.Messages) != 0 {
		t.Error("snapshot mutation leaked into registry state")
	}
	if again.Requirements != "req" {
		t.Errorf("requirements = %q, want %q", again.Requirements, "req")
	}
}

func TestMutate_AppliesAtomically(t *testing.T) {
	r := newRegistry()
	p := project.New("req")
	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	err := r.Mutate(p.ID, func(live *project.Project) error {
		live.SetStatus(project.StatusRunning)
		live.AppendMessage(project.SenderSystem, "started")
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	snap, err := r.Get(p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if snap.Status != project.StatusRunning {
		t.Errorf("status = %q, want running", snap.Status)
	}
	if len(snap.Messages) != 1 {
		t.Errorf("len(Messages) = %d, want 1", len(snap.Messages))
	}
}

func TestMutate_NotFound(t *testing.T) {
	r := newRegistry()
	err := r.Mutate(id.NewProjectID(), func(*project.Project) error { return nil })
	if !errors.Is(err, atelier.ErrProjectNotFound) {
		t.Errorf("Mutate error = %v, want ErrProjectNotFound", err)
	}
}

func TestMutate_PropagatesError(t *testing.T) {
	r := newRegistry()
	p := project.New("req")
	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	sentinel := errors.New("boom")
	if err := r.Mutate(p.ID, func(*project.Project) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("Mutate error = %v, want sentinel", err)
	}
}

func TestMutate_ConcurrentAppendsKeepSequenceContiguous(t *testing.T) {
	r := newRegistry()
	p := project.New("req")
	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = r.Mutate(p.ID, func(live *project.Project) error {
					live.AppendMessage(project.SenderUser, "ping")
					return nil
				})
			}
		}()
	}
	wg.Wait()

	snap, err := r.Get(p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(snap.Messages) != writers*perWriter {
		t.Fatalf("len(Messages) = %d, want %d", len(snap.Messages), writers*perWriter)
	}
	for i, m := range snap.Messages {
		if m.Seq != i {
			t.Fatalf("Messages[%d].Seq = %d, sequence has gaps or duplicates", i, m.Seq)
		}
	}
}

func TestList_And_Evict(t *testing.T) {
	r := newRegistry()
	a := project.New("a")
	b := project.New("b")
	for _, p := range []*project.Project{a, b} {
		if err := r.Register(p); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	if got := len(r.List()); got != 2 {
		t.Errorf("len(List) = %d, want 2", got)
	}

	if !r.Evict(a.ID) {
		t.Error("Evict returned false for present project")
	}
	if r.Evict(a.ID) {
		t.Error("Evict returned true for absent project")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	if _, err := r.Get(a.ID); !errors.Is(err, atelier.ErrProjectNotFound) {
		t.Errorf("Get after evict = %v, want ErrProjectNotFound", err)
	}
}

func TestJanitor_SweepEvictsOnlyStaleTerminal(t *testing.T) {
	r := newRegistry()

	stale := project.New("stale")
	stale.SetStatus(project.StatusCompleted)
	old := time.Now().UTC().Add(-2 * time.Hour)
	stale.CompletedAt = &old

	fresh := project.New("fresh")
	fresh.SetStatus(project.StatusErrored)

	running := project.New("running")
	running.SetStatus(project.StatusRunning)

	for _, p := range []*project.Project{stale, fresh, running} {
		if err := r.Register(p); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	j, err := registry.NewJanitor(r, time.Hour, "@every 1m", testLogger())
	if err != nil {
		t.Fatalf("NewJanitor: %v", err)
	}

	if evicted := j.Sweep(time.Now().UTC()); evicted != 1 {
		t.Fatalf("Sweep evicted %d, want 1", evicted)
	}
	if _, err := r.Get(stale.ID); !errors.Is(err, atelier.ErrProjectNotFound) {
		t.Error("stale terminal project survived the sweep")
	}
	if _, err := r.Get(fresh.ID); err != nil {
		t.Error("fresh terminal project was evicted")
	}
	if _, err := r.Get(running.ID); err != nil {
		t.Error("running project was evicted")
	}
}

func TestJanitor_InvalidSchedule(t *testing.T) {
	if _, err := registry.NewJanitor(newRegistry(), time.Hour, "not a schedule", testLogger()); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}

func TestJanitor_StartStop(t *testing.T) {
	j, err := registry.NewJanitor(newRegistry(), time.Hour, "@every 1h", testLogger())
	if err != nil {
		t.Fatalf("NewJanitor: %v", err)
	}
	j.Start()
	j.Stop()
}
