// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-metadata/internal/llm"
)

const checkSample = `Attention Is All You Need
Ashish Vaswani, Noam Shazeer, Niki Parmar
Google Brain
31st Conference on Neural Information Processing Systems (NIPS 2017)
Abstract: The dominant sequence transduction models are based on complex
recurrent or convolutional neural networks.`

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the API key and model with two small requests",
	Long: `Check sends a one-line prompt and then a sample metadata prompt to the
configured provider and prints both answers. Use it to confirm the key and
model before a long run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromViper(viper.GetViper())
		if err != nil {
			return err
		}
		if err := resolveCredential(&cfg); err != nil {
			return err
		}
		backend, err := newBackend(cfg.AIConfig, &http.Client{Timeout: cfg.Timeout}, logger)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Checking %s (%s)\n", cfg.Provider, cfg.Model)
		c := backend.Complete(cmd.Context(), "Reply with the single word: ready")
		if !c.OK() {
			return fmt.Errorf("basic request failed (%s): %w", c.Failure, c.Err)
		}
		fmt.Fprintf(out, "basic request:    ok (%q)\n", c.Text)

		prompt, err := llm.RenderPrompt(checkSample)
		if err != nil {
			return err
		}
		c = backend.Complete(cmd.Context(), prompt)
		if !c.OK() {
			return fmt.Errorf("metadata request failed (%s): %w", c.Failure, c.Err)
		}
		raw, err := llm.ParseResponse(c.Text)
		if err != nil {
			fmt.Fprintf(out, "metadata request: answered, but not as JSON: %v\n", err)
			return nil
		}
		fmt.Fprintf(out, "metadata request: ok (title %q)\n", raw["title"])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
