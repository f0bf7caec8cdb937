package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
	"github.com/polkaguardian/guardian-cli/internal/llm"
	"github.com/polkaguardian/guardian-cli/internal/model"
)

func (s *runtimeState) newGovCommand() *cobra.Command {
	root := &cobra.Command{Use: "gov", Short: "OpenGov dataset browsing and analysis"}
	root.AddCommand(s.newGovVoterCommand())
	root.AddCommand(s.newGovProposalsCommand())
	root.AddCommand(s.newGovSummarizeCommand())
	root.AddCommand(s.newGovChatCommand())
	return root
}

func (s *runtimeState) newGovVoterCommand() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "voter",
		Short: "Look up a voter's governance profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			s.resetCommandDiagnostics()
			store, err := s.governanceStore()
			if err != nil {
				return err
			}
			profile, ok := store.LookupVoter(address)
			if !ok {
				// Mirror the lookup surface: an unknown address is an
				// empty result with a warning, not a failure.
				warnings := []string{"no governance data found for this address"}
				s.captureCommandDiagnostics(warnings, nil, false)
				return s.emitSuccess(trimRootPath(cmd.CommandPath()), []model.VoterProfile{}, warnings, cacheMetaBypass(), nil, false)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), profile, nil, cacheMetaBypass(), nil, false)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Voter wallet address")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func (s *runtimeState) newGovProposalsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "List recent referenda from the governance dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := s.governanceStore()
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), store.Proposals(limit), nil, cacheMetaBypass(), nil, false)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum referenda to return (0 = all)")
	return cmd
}

func (s *runtimeState) newGovSummarizeCommand() *cobra.Command {
	var referendum, chainArg string
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "AI summary of one referendum",
		RunE: func(cmd *cobra.Command, args []string) error {
			s.resetCommandDiagnostics()
			store, err := s.governanceStore()
			if err != nil {
				return err
			}
			proposal, ok := store.ProposalByID(referendum, chainArg)
			if !ok {
				return clierr.New(clierr.CodeUsage, fmt.Sprintf("referendum %s not found in the governance dataset", referendum))
			}
			messages, err := llm.SummaryMessages(proposal)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "build summary prompt", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), s.settings.Timeout)
			defer cancel()
			answer, err := s.chat.Complete(ctx, messages, llm.SummaryMaxTokens)
			if err != nil {
				return err
			}
			data := map[string]any{
				"referendum": proposal,
				"summary":    answer,
			}
			sources := []model.SourceStatus{{Name: "openai", Status: "ok"}}
			s.captureCommandDiagnostics(nil, sources, false)
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), sources, false)
		},
	}
	cmd.Flags().StringVar(&referendum, "referendum", "", "Referendum id")
	cmd.Flags().StringVar(&chainArg, "chain", "", "Restrict lookup to one chain")
	_ = cmd.MarkFlagRequired("referendum")
	return cmd
}

func (s *runtimeState) newGovChatCommand() *cobra.Command {
	var question string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask the governance assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			s.resetCommandDiagnostics()
			if question == "" {
				return clierr.New(clierr.CodeUsage, "--question is required")
			}
			store, err := s.governanceStore()
			if err != nil {
				return err
			}
			messages, err := llm.GovernanceMessages(store.ContextRecords(20), question)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "build governance prompt", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), s.settings.Timeout)
			defer cancel()
			answer, err := s.chat.Complete(ctx, messages, llm.ChatMaxTokens)
			if err != nil {
				return err
			}
			sources := []model.SourceStatus{{Name: "openai", Status: "ok"}}
			s.captureCommandDiagnostics(nil, sources, false)
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), ChatAnswer{Question: question, Answer: answer}, nil, cacheMetaBypass(), sources, false)
		},
	}
	cmd.Flags().StringVar(&question, "question", "", "Governance question")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}
