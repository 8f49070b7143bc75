package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestExecutionLoggerStampsRulesetFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LoggerConfig{
		Format:  JSONFormat,
		Outputs: []io.Writer{&buf},
	})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer logger.Close()

	elog := NewExecutionLogger(logger, "vip-discount", "1")
	elog.Step("check_vip", "decision", "branch:vip_discount")
	elog.Terminal("VIP", 1500)

	logger.Sync()

	out := buf.String()
	if !strings.Contains(out, `"ruleset":"vip-discount"`) {
		t.Fatalf("expected ruleset field in output:\n%s", out)
	}
	if !strings.Contains(out, `"ruleset_version":"1"`) {
		t.Fatalf("expected ruleset_version field in output:\n%s", out)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	for _, line := range lines {
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("unmarshal log line %q: %v", line, err)
		}
		if entry.RequestID == "" {
			t.Fatal("expected a generated request ID on every entry")
		}
	}
}

func TestExecutionLoggerFailed(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LoggerConfig{
		Format:  JSONFormat,
		Outputs: []io.Writer{&buf},
	})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer logger.Close()

	elog := NewExecutionLogger(logger, "tax-calc", "2")
	elog.Failed("s3", "permanent", "max depth exceeded")
	logger.Sync()

	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Fatalf("expected an ERROR level entry:\n%s", buf.String())
	}
}
