package schema

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestBuildSchema(t *testing.T) {
	root := &cobra.Command{Use: "guardian"}
	child := &cobra.Command{Use: "account", Short: "account cmds"}
	leaf := &cobra.Command{Use: "snapshot", Short: "full account snapshot"}
	leaf.Flags().String("chain", "polkadot", "chain to query")
	child.AddCommand(leaf)
	root.AddCommand(child)

	s, err := Build(root, "account snapshot")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.Path != "guardian account snapshot" {
		t.Fatalf("unexpected path: %s", s.Path)
	}
	if len(s.Flags) != 1 || s.Flags[0].Name != "chain" {
		t.Fatalf("unexpected flags: %+v", s.Flags)
	}
}

func TestBuildSchemaUnknownCommand(t *testing.T) {
	root := &cobra.Command{Use: "guardian"}
	if _, err := Build(root, "nope"); err == nil {
		t.Fatal("expected error for unknown command path")
	}
}
