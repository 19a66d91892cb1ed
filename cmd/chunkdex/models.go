package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/chunkdex/internal/domain"
)

func newModelsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Print the configured chat and embedding models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.load()
			if err != nil {
				return err
			}
			defer a.close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.factory().ModelInfo())
		},
	}
}

func newValidateCmd(g *globalOptions) *cobra.Command {
	var ping bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that the LLM settings can build a model client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.load()
			if err != nil {
				return err
			}
			defer a.close()

			f := a.factory()
			if !f.ValidateLLMConfiguration() {
				return fmt.Errorf("llm configuration is invalid: %w", domain.ErrConfiguration)
			}

			if ping {
				client, err := f.LLMModel("")
				if err != nil {
					return err
				}
				if err := client.HealthCheck(cmd.Context()); err != nil {
					return err
				}
				if emb, err := f.EmbeddingModel(); err == nil {
					if err := emb.HealthCheck(cmd.Context()); err != nil {
						return err
					}
				} else if !errors.Is(err, domain.ErrConfiguration) {
					return err
				}
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "LLM configuration is valid")
			return err
		},
	}

	cmd.Flags().BoolVar(&ping, "ping", false, "Also call the model endpoint")

	return cmd
}
