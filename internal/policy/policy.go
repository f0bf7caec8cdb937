// Package policy enforces the --enable-commands allowlist, for embedding the
// CLI in automation where only a fixed command set should run.
package policy

import (
	"strings"

	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
)

func CheckCommandAllowed(allowlist []string, commandPath string) error {
	if len(allowlist) == 0 {
		return nil
	}
	normPath := normalize(commandPath)
	for _, allowed := range allowlist {
		if normalize(allowed) == normPath {
			return nil
		}
	}
	return clierr.New(clierr.CodeBlocked, "command blocked by --enable-commands policy")
}

func normalize(v string) string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(v)))
	return strings.Join(parts, " ")
}
