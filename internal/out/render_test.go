package out

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/polkaguardian/guardian-cli/internal/config"
	"github.com/polkaguardian/guardian-cli/internal/model"
)

func TestRenderJSONSelectResultsOnly(t *testing.T) {
	env := model.Envelope{
		Version: "v1",
		Success: true,
		Data:    []map[string]any{{"hash": "0xabc", "amount": "12"}},
		Meta:    model.EnvelopeMeta{Timestamp: time.Now()},
	}
	settings := config.Settings{OutputMode: "json", SelectFields: []string{"hash"}, ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(out) != 1 || out[0]["hash"] != "0xabc" {
		t.Fatalf("unexpected output: %s", buf.String())
	}
	if _, ok := out[0]["amount"]; ok {
		t.Fatalf("field projection failed: %s", buf.String())
	}
}

func TestRenderProjectsStructRows(t *testing.T) {
	env := model.Envelope{
		Version: "v1",
		Success: true,
		Data: []model.Transfer{
			{From: "a", To: "b", Amount: "5", Hash: "0x1"},
		},
		Meta: model.EnvelopeMeta{Timestamp: time.Now()},
	}
	settings := config.Settings{OutputMode: "json", SelectFields: []string{"from", "amount"}, ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(out) != 1 || out[0]["from"] != "a" || out[0]["amount"] != "5" {
		t.Fatalf("struct rows not projected: %s", buf.String())
	}
}

func TestRenderPlain(t *testing.T) {
	env := model.Envelope{
		Version: "v1",
		Success: true,
		Data:    []map[string]any{{"chain": "polkadot", "nonce": 42}},
		Meta:    model.EnvelopeMeta{Timestamp: time.Now()},
	}
	settings := config.Settings{OutputMode: "plain", ResultsOnly: true}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "chain=polkadot") {
		t.Fatalf("unexpected plain output: %s", buf.String())
	}
}
