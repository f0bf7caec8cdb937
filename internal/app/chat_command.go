package app

import (
	"context"

	"github.com/spf13/cobra"

	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
	"github.com/polkaguardian/guardian-cli/internal/llm"
	"github.com/polkaguardian/guardian-cli/internal/model"
	"github.com/polkaguardian/guardian-cli/internal/subscan"
)

// ChatAnswer is the data payload of the assistant commands.
type ChatAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (s *runtimeState) newChatCommand() *cobra.Command {
	var chainArg, addressArg, question string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask the wallet assistant about an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			s.resetCommandDiagnostics()
			if question == "" {
				return clierr.New(clierr.CodeUsage, "--question is required")
			}
			chain, address, err := s.resolveTarget(chainArg, addressArg)
			if err != nil {
				return err
			}

			res, err := s.assembleSnapshot(chain, address, false)
			if err != nil {
				return err
			}
			snap := res.Snapshot
			balances := subscan.Overview(snap.Account, snap.TokenMetadata)
			messages, err := llm.WalletMessages(snap, balances, question)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "build wallet prompt", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), s.settings.Timeout)
			defer cancel()
			answer, err := s.chat.Complete(ctx, messages, llm.ChatMaxTokens)
			if err != nil {
				return err
			}
			sources := []model.SourceStatus{
				{Name: "subscan", Status: "ok"},
				{Name: "openai", Status: "ok"},
			}
			s.captureCommandDiagnostics(snap.Warnings, sources, false)
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), ChatAnswer{Question: question, Answer: answer}, snap.Warnings, cacheMetaBypass(), sources, false)
		},
	}
	cmd.Flags().StringVar(&chainArg, "chain", "polkadot", "Chain key or name")
	cmd.Flags().StringVar(&addressArg, "address", "", "Account address or identity")
	cmd.Flags().StringVar(&question, "question", "", "Question about the account")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}
