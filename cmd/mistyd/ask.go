package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/prompt"
)

func newAskCmd() *cobra.Command {
	var (
		render  bool
		asJSON  bool
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer one text question with the configured LLM",
		Long: `Runs a question through the prompt engine without speech-to-text.

Directive phrases work as they do for voice jobs, for example:
  mistyd ask "explain recursion with example"
  mistyd ask "compare tcp and udp in table format" --render`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			gen, err := newGenerator(ctx, cfg.LLM)
			if err != nil {
				return err
			}
			defer gen.Close()

			engine := prompt.NewEngine(gen, prompt.WithTimeout(cfg.LLM.Timeout))
			res := engine.Answer(ctx, strings.Join(args, " "))
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(askOutput{
					Question:   res.Question,
					Directives: res.Flags.Names(),
					Response:   res.Text,
					Fallback:   res.Fallback(),
				})
			}
			if verbose && res.Flags.Any() {
				fmt.Fprintf(cmd.ErrOrStderr(), "directives: %s\n", strings.Join(res.Flags.Names(), ", "))
			}
			if res.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", res.Err)
			}

			text := res.Text
			if render {
				text, err = renderMarkdown(text)
				if err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(out, strings.TrimRight(text, "\n"))
			return err
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "render the answer as terminal markdown")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the answer and recognized directives as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print recognized directives to stderr")
	return cmd
}

type askOutput struct {
	Question   string   `json:"question"`
	Directives []string `json:"directives"`
	Response   string   `json:"response"`
	Fallback   bool     `json:"fallback"`
}

func renderMarkdown(text string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(text)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
