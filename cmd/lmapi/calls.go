package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lmapi/internal/chatfmt"
	"lmapi/internal/manager"
)

func completeCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:     "complete <prompt>",
		Short:   "Continue a prompt",
		Example: `  lmapi complete "She hoped that"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
				out, err := m.Complete(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func doCmd(s *settings) *cobra.Command {
	var choices string
	cmd := &cobra.Command{
		Use:   "do <prompt> [prompt...]",
		Short: "Follow one or more instructions",
		Example: `  lmapi do "Translate to English: Hola, mundo!"
  lmapi do "Is grass green?" --choices yes,no`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
				c := m.Client()
				var (
					out []string
					err error
				)
				if opts := splitCSV(choices); len(opts) > 0 {
					out, err = c.DoBatchChoices(ctx, args, opts)
				} else {
					out, err = c.DoBatch(ctx, args)
				}
				if err != nil {
					return err
				}
				for _, o := range out {
					fmt.Fprintln(cmd.OutOrStdout(), o)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&choices, "choices", "", "Comma-separated answers to rank instead of generating")
	return cmd
}

func chatCmd(s *settings) *cobra.Command {
	var messages []string
	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Reply to a conversation",
		Long: `Reply to a conversation given either as a chat prompt ending in "Assistant:"
or as repeated --message role=content flags.`,
		Example: `  lmapi chat $'System: Be brief.\n\nUser: What is the capital of France?\n\nAssistant:'
  lmapi chat --message user="What is the capital of France?"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (len(messages) > 0) {
				return fmt.Errorf("chat requires either a prompt or --message flags")
			}
			var msgs []chatfmt.Message
			for _, kv := range messages {
				role, content, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("--message expects role=content, got %q", kv)
				}
				r, err := chatfmt.ParseRole(role)
				if err != nil {
					return err
				}
				msgs = append(msgs, chatfmt.Message{Role: r, Content: content})
			}
			return s.withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
				var (
					out string
					err error
				)
				if len(msgs) > 0 {
					out, err = m.ChatMessages(ctx, msgs)
				} else {
					out, err = m.Chat(ctx, args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&messages, "message", nil, "Chat message as role=content (repeatable)")
	return cmd
}

func classifyCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:     "classify <text> <label1> <label2>",
		Short:   "Pick the better of two labels for a text",
		Example: `  lmapi classify "I love this movie" positive negative`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
				out, err := m.Classify(ctx, args[0], args[1], args[2])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func extractCmd(s *settings) *cobra.Command {
	var passage string
	cmd := &cobra.Command{
		Use:     "extract <question>",
		Short:   "Answer a question from a passage",
		Example: `  lmapi extract "What color is the sky?" --context "The sky is blue."`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
				out, err := m.ExtractAnswer(ctx, args[0], passage)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&passage, "context", "", "Passage containing the answer")
	_ = cmd.MarkFlagRequired("context")
	return cmd
}

func tokensCmd(s *settings) *cobra.Command {
	var count bool
	cmd := &cobra.Command{
		Use:     "tokens <text>",
		Short:   "Show how the model tokenizes text",
		Example: `  lmapi tokens "Hello world"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
				if count {
					n, err := m.CountTokens(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), n)
					return nil
				}
				toks, err := m.Client().ListTokens(ctx, args[0])
				if err != nil {
					return err
				}
				for _, t := range toks {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%q\n", t.ID, t.Text)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&count, "count", false, "Print only the number of tokens")
	return cmd
}
