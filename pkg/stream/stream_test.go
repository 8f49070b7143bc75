package stream_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/pama-lee/ordo/pkg/executor"
	"github.com/pama-lee/ordo/pkg/ruleset"
	"github.com/pama-lee/ordo/pkg/stream"
	"github.com/pama-lee/ordo/pkg/value"
)

func approvalRuleSet() *ruleset.RuleSet {
	return &ruleset.RuleSet{
		Config: ruleset.Config{
			Name:         "approval",
			Version:      "1",
			EntryStep:    "decide",
			FieldMissing: "lenient",
		},
		Steps: map[string]ruleset.Step{
			"decide": {
				ID:   "decide",
				Kind: ruleset.KindTerminal,
				Result: &ruleset.TerminalResult{
					Code: "APPROVED",
				},
			},
		},
	}
}

func dialSubscriber(t *testing.T, server *httptest.Server, ruleset string) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/stream?ruleset=" + ruleset
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubPublishDeliversToSubscriber(t *testing.T) {
	hub := stream.NewHub()
	defer hub.Shutdown()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer server.Close()

	conn := dialSubscriber(t, server, "approval")

	// give the hub a moment to register and join the room
	time.Sleep(50 * time.Millisecond)
	if hub.SubscriberCount("approval") != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", hub.SubscriberCount("approval"))
	}

	if err := hub.Publish(executor.StreamEvent{Ruleset: "approval", Version: "1", StepID: "decide", Kind: "terminal", Code: "APPROVED"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var envelope struct {
		Data executor.StreamEvent `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal: %v\nraw: %s", err, data)
	}
	if envelope.Data.Code != "APPROVED" || envelope.Data.StepID != "decide" {
		t.Fatalf("event = %+v, want code APPROVED step decide", envelope.Data)
	}
}

func TestHubPublishNoSubscribersIsNoop(t *testing.T) {
	hub := stream.NewHub()
	defer hub.Shutdown()

	if err := hub.Publish(executor.StreamEvent{Ruleset: "nobody-listening", Code: "OK"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestServeHTTPRequiresRulesetParam(t *testing.T) {
	hub := stream.NewHub()
	defer hub.Shutdown()

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestExecuteWithStreamPublishesSteps(t *testing.T) {
	hub := stream.NewHub()
	defer hub.Shutdown()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer server.Close()

	conn := dialSubscriber(t, server, "approval")
	time.Sleep(50 * time.Millisecond)

	_, execErr := executor.Execute(approvalRuleSet(), value.Null(), executor.Options{Stream: hub})
	if execErr != nil {
		t.Fatalf("Execute: %v", execErr.Err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var envelope struct {
		Data executor.StreamEvent `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal: %v\nraw: %s", err, data)
	}
	if envelope.Data.Ruleset != "approval" || envelope.Data.Code != "APPROVED" {
		t.Fatalf("event = %+v, want ruleset approval code APPROVED", envelope.Data)
	}
}
