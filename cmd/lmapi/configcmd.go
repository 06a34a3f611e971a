package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lmapi/internal/config"
)

func configCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved model options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := s.resolvedStore()
			if err != nil {
				return err
			}
			vals := st.Values()
			for _, k := range config.Keys() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", k, vals[k])
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "get <key>",
		Short:   "Print one option",
		Example: "  lmapi config get max_ram",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := s.resolvedStore()
			if err != nil {
				return err
			}
			v, err := st.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "models",
		Short: "List models found in the artifact directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := s.catalog()
			if err != nil {
				return err
			}
			for _, m := range cat.Models() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.3fgb\t%s\n", m.Name, m.Architecture, m.SizeGB, m.License)
			}
			return nil
		},
	})
	return cmd
}

func (s *settings) resolvedStore() (*config.Store, error) {
	cat, err := s.catalog()
	if err != nil {
		return nil, err
	}
	return s.store(cat)
}
