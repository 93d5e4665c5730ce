package client_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	forgetesting "github.com/xraph/forge/testing"

	"github.com/xraph/atelier"
	"github.com/xraph/atelier/client"
	"github.com/xraph/atelier/engine"
	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/project"
	"github.com/xraph/atelier/registry"
	"github.com/xraph/atelier/stream"
	"github.com/xraph/atelier/wire"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupClientTest creates a full Forge app with wire routes on an httptest
// server, then dials a Go client. Returns the client and engine.
func setupClientTest(t *testing.T) (*client.Client, *engine.Engine) {
	t.Helper()

	logger := testLogger()
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

	handler := wire.NewHandler(eng, broker, logger)
	wireServer := wire.NewServer(broker, handler, wire.WithLogger(logger))

	fapp := forgetesting.NewTestApp("client-test-app", "0.1.0")
	wireServer.RegisterRoutes(fapp.Router())

	ts := httptest.NewServer(fapp.Router())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/wire"
	c, dialErr := client.DialContext(context.Background(), wsURL,
		client.WithLogger(logger),
	)
	if dialErr != nil {
		ts.Close()
		t.Fatalf("DialContext: %v", dialErr)
	}

	t.Cleanup(func() {
		_ = c.Close()
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = eng.Stop(ctx)
	})

	return c, eng
}

// submitAndWait submits requirements and polls until the project is terminal.
func submitAndWait(t *testing.T, c *client.Client, requirements string) *project.Project {
	t.Helper()

	ctx := context.Background()
	result, err := c.Submit(ctx, requirements)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.ProjectID == "" {
		t.Fatal("expected non-empty project_id")
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		p, getErr := c.GetProject(ctx, result.ProjectID)
		if getErr != nil {
			t.Fatalf("GetProject: %v", getErr)
		}
		if p.Status.Terminal() {
			return p
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("project never reached a terminal state")
	return nil
}

// ── Connection Tests ──────────────────────────────────

func TestClient_DialAndClose(t *testing.T) {
	c, _ := setupClientTest(t)

	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	// Close is idempotent.
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

// ── Project Tests ─────────────────────────────────────

func TestClient_SubmitAndGet(t *testing.T) {
	c, _ := setupClientTest(t)

	p := submitAndWait(t, c, "Build an expense tracker\n- record expenses\n- approve reports")
	if p.Status != project.StatusCompleted {
		t.Errorf("status = %q, want %q", p.Status, project.StatusCompleted)
	}
	if p.Progress != 100 {
		t.Errorf("progress = %d, want 100", p.Progress)
	}
}

func TestClient_Messages(t *testing.T) {
	c, _ := setupClientTest(t)

	p := submitAndWait(t, c, "Build a helpdesk")

	result, err := c.Messages(context.Background(), p.ID.String(), 0)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(result.Messages) == 0 {
		t.Fatal("expected messages")
	}
	if result.Messages[0].Content != "Project workflow started." {
		t.Errorf("first message = %q", result.Messages[0].Content)
	}
	if result.NextCursor != len(result.Messages) {
		t.Errorf("next_cursor = %d, want %d", result.NextCursor, len(result.Messages))
	}

	// Incremental read from the cursor.
	more, err := c.Messages(context.Background(), p.ID.String(), result.NextCursor)
	if err != nil {
		t.Fatalf("Messages from cursor: %v", err)
	}
	if len(more.Messages) != 0 {
		t.Errorf("messages past cursor = %d, want 0", len(more.Messages))
	}
}

func TestClient_PostMessage(t *testing.T) {
	c, _ := setupClientTest(t)

	p := submitAndWait(t, c, "Build a scheduler")

	seq, err := c.PostMessage(context.Background(), p.ID.String(), "", "ship it")
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	if seq <= 0 {
		t.Errorf("seq = %d, want > 0", seq)
	}

	result, err := c.Messages(context.Background(), p.ID.String(), seq)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(result.Messages) != 1 || result.Messages[0].Content != "ship it" {
		t.Errorf("messages from seq = %+v", result.Messages)
	}
}

func TestClient_Artifacts(t *testing.T) {
	c, _ := setupClientTest(t)

	p := submitAndWait(t, c, "Build a parts catalog")

	artifacts, err := c.Artifacts(context.Background(), p.ID.String())
	if err != nil {
		t.Fatalf("Artifacts: %v", err)
	}
	if _, ok := artifacts["project_summary.md"]; !ok {
		t.Error("project_summary.md missing from artifacts")
	}

	artifact, err := c.Artifact(context.Background(), p.ID.String(), "schema.sql")
	if err != nil {
		t.Fatalf("Artifact: %v", err)
	}
	if artifact.Content == "" {
		t.Error("artifact content is empty")
	}
	if artifact.Kind != project.KindCode {
		t.Errorf("kind = %q, want %q", artifact.Kind, project.KindCode)
	}
}

// ── Subscription Tests ────────────────────────────────

func TestClient_SubscribeReceivesEvents(t *testing.T) {
	c, _ := setupClientTest(t)

	ch, err := c.Subscribe(context.Background(), stream.TopicProjects)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if _, submitErr := c.Submit(context.Background(), "Build a voting app"); submitErr != nil {
		t.Fatalf("Submit: %v", submitErr)
	}

	select {
	case evt := <-ch:
		if evt.Type != stream.EventProjectStarted {
			t.Errorf("first event = %q, want %q", evt.Type, stream.EventProjectStarted)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}

func TestClient_SubscribeAndUnsubscribe(t *testing.T) {
	c, _ := setupClientTest(t)

	ch, err := c.Subscribe(context.Background(), stream.TopicFirehose)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if ch == nil {
		t.Fatal("expected non-nil channel")
	}

	if unsubErr := c.Unsubscribe(context.Background(), stream.TopicFirehose); unsubErr != nil {
		t.Fatalf("Unsubscribe: %v", unsubErr)
	}
	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}
}

func TestClient_SubscribeInvalidTopic(t *testing.T) {
	c, _ := setupClientTest(t)

	if _, err := c.Subscribe(context.Background(), "bogus"); err == nil {
		t.Fatal("expected error for invalid topic")
	}
}

// ── Stats Test ────────────────────────────────────────

func TestClient_Stats(t *testing.T) {
	c, _ := setupClientTest(t)

	raw, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	var stats map[string]interface{}
	if jsonErr := json.Unmarshal(raw, &stats); jsonErr != nil {
		t.Fatalf("stats unmarshal: %v", jsonErr)
	}
}

// ── Error Handling Tests ──────────────────────────────

func TestClient_GetProject_NotFound(t *testing.T) {
	c, _ := setupClientTest(t)

	_, err := c.GetProject(context.Background(), id.NewProjectID().String())
	if err == nil {
		t.Fatal("expected error for nonexistent project")
	}
}

func TestClient_Submit_EmptyRequirements(t *testing.T) {
	c, _ := setupClientTest(t)

	_, err := c.Submit(context.Background(), "  ")
	if err == nil {
		t.Fatal("expected error for empty requirements")
	}
}

// ── Context Cancellation Tests ────────────────────────

func TestClient_ContextTimeout(t *testing.T) {
	c, _ := setupClientTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()
	time.Sleep(5 * time.Millisecond) // Ensure timeout fires.

	_, err := c.Submit(ctx, "Build anything")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
