package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
	"github.com/polkaguardian/guardian-cli/internal/httpx"
	"github.com/polkaguardian/guardian-cli/internal/model"
)

func TestCompleteRequestShape(t *testing.T) {
	var got completionRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  the answer  "}}]}`))
	}))
	defer srv.Close()

	c := New(httpx.New(5*time.Second, 0), "sk-test", srv.URL, "", nil)
	answer, err := c.Complete(context.Background(), []Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "q"},
	}, 0)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "the answer" {
		t.Fatalf("expected trimmed first choice, got %q", answer)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("missing bearer auth, got %q", auth)
	}
	if got.Model != DefaultModel || got.Temperature != DefaultTemperature || got.MaxTokens != ChatMaxTokens {
		t.Fatalf("unexpected request defaults: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("messages not forwarded: %+v", got.Messages)
	}
}

func TestCompleteWithoutAPIKey(t *testing.T) {
	c := New(httpx.New(time.Second, 0), "", "http://unused", "", nil)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "q"}}, 0)
	cerr, ok := clierr.As(err)
	if !ok || cerr.Code != clierr.CodeAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestCompleteServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	c := New(httpx.New(time.Second, 0), "sk-test", srv.URL, "", nil)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "q"}}, 0)
	cerr, ok := clierr.As(err)
	if !ok || cerr.Code != clierr.CodeUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestWalletMessagesGrounding(t *testing.T) {
	snap := &model.AccountSnapshot{
		Chain:   "polkadot",
		Account: model.Account{Address: "15g4z", Balance: "90"},
		TokenMetadata: model.TokenMetadata{
			Symbol: "DOT", Decimals: 10, PriceUSD: 5,
		},
		Transfers: make([]model.Transfer, 50),
		Warnings:  []string{"transfers truncated after 100 rows: timeout"},
	}
	balances := model.BalanceOverview{Symbol: "DOT", Total: 90, TotalUSD: 450}

	msgs, err := WalletMessages(snap, balances, "how much is this wallet worth?")
	if err != nil {
		t.Fatalf("WalletMessages failed: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != "system" || msgs[1].Role != "user" {
		t.Fatalf("unexpected message shape: %+v", msgs)
	}
	user := msgs[1].Content
	for _, want := range []string{"15g4z", `"transfer_count": 50`, "450", "truncated", "how much is this wallet worth?"} {
		if !strings.Contains(user, want) {
			t.Fatalf("grounding missing %q in:\n%s", want, user)
		}
	}
	var g walletGrounding
	start := strings.Index(user, "{")
	end := strings.LastIndex(user, "}")
	if err := json.Unmarshal([]byte(user[start:end+1]), &g); err != nil {
		t.Fatalf("grounding blob is not valid JSON: %v", err)
	}
	if len(g.RecentTransfers) != groundingTransfers {
		t.Fatalf("recent transfers not capped: %d", len(g.RecentTransfers))
	}
}

func TestGovernanceMessagesCapProposals(t *testing.T) {
	proposals := make([]model.Proposal, 60)
	for i := range proposals {
		proposals[i] = model.Proposal{Chain: "polkadot", ReferendaID: "r", Title: "t"}
	}
	msgs, err := GovernanceMessages(proposals, "what passed recently?")
	if err != nil {
		t.Fatalf("GovernanceMessages failed: %v", err)
	}
	if n := strings.Count(msgs[1].Content, `"referenda_id"`); n != groundingProposals {
		t.Fatalf("expected %d grounded proposals, got %d", groundingProposals, n)
	}
}
