package main

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	forgetesting "github.com/xraph/forge/testing"

	"github.com/xraph/atelier"
	"github.com/xraph/atelier/engine"
	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/registry"
	"github.com/xraph/atelier/stream"
	"github.com/xraph/atelier/wire"
)

// startExportServer brings up an engine with wire routes on an httptest
// server and returns its ws URL plus the engine.
func startExportServer(t *testing.T) (string, *engine.Engine) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := atelier.New(
		atelier.WithLogger(logger),
		atelier.WithRegistry(registry.New(registry.WithLogger(logger))),
	)
	if err != nil {
		t.Fatalf("atelier.New: %v", err)
	}

	broker := stream.NewBroker(logger)
	eng, err := engine.Build(a, engine.WithExtension(broker))
	if err != nil {
		t.Fatalf("engine.Build: %v", err)
	}
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("engine.Start: %v", err)
	}

	fapp := forgetesting.NewTestApp("export-test-app", "0.1.0")
	wire.NewServer(broker, wire.NewHandler(eng, broker, logger), wire.WithLogger(logger)).
		RegisterRoutes(fapp.Router())
	ts := httptest.NewServer(fapp.Router())

	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = eng.Stop(ctx)
	})

	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/wire", eng
}

func TestRunExport(t *testing.T) {
	wsURL, eng := startExportServer(t)

	p, err := eng.Submit("Build a fleet tracker")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		snap, getErr := eng.GetProject(p.ID)
		if getErr != nil {
			t.Fatalf("GetProject: %v", getErr)
		}
		if snap.Status.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("project never reached a terminal state")
		}
		time.Sleep(5 * time.Millisecond)
	}

	dir := filepath.Join(t.TempDir(), "out")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n, err := runExport(context.Background(), logger, wsURL, p.ID.String(), dir)
	if err != nil {
		t.Fatalf("runExport: %v", err)
	}
	if n == 0 {
		t.Fatal("no artifacts exported")
	}

	for _, name := range []string{"project_summary.md", "schema.sql"} {
		data, readErr := os.ReadFile(filepath.Join(dir, name))
		if readErr != nil {
			t.Errorf("read %s: %v", name, readErr)
			continue
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestRunExport_UnknownProject(t *testing.T) {
	wsURL, _ := startExportServer(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := runExport(context.Background(), logger, wsURL, id.NewProjectID().String(), t.TempDir())
	if err == nil {
		t.Fatal("expected error for unknown project")
	}
}
