package policy

import "testing"

func TestCheckCommandAllowed(t *testing.T) {
	if err := CheckCommandAllowed(nil, "account snapshot"); err != nil {
		t.Fatalf("unexpected error with empty allowlist: %v", err)
	}
	if err := CheckCommandAllowed([]string{"account snapshot"}, "account snapshot"); err != nil {
		t.Fatalf("expected command to be allowed: %v", err)
	}
	if err := CheckCommandAllowed([]string{"  Account   Snapshot "}, "account snapshot"); err != nil {
		t.Fatalf("expected normalized match: %v", err)
	}
	if err := CheckCommandAllowed([]string{"chains list"}, "gov chat"); err == nil {
		t.Fatal("expected command to be blocked")
	}
}
