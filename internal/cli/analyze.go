package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var jsonOut string

	cmd := &cobra.Command{
		Use:   "analyze <paper>",
		Short: "Analyze a research paper and extract its structure",
		Long:  "Analyze reads paper text from a file (or stdin with \"-\") and extracts title, authors, findings, methodology, and complexity. Results are cached, so downstream generation commands reuse the same analysis.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			prog := newProgress(logger)

			cch := c.newCache(ctx)
			defer cch.Close()

			spin := newSpinnerWithContext(ctx, "Analyzing paper...")
			spin.Start()
			analysis, err := c.analyzePaper(ctx, args[0], cch)
			spin.Stop()
			if err != nil {
				return err
			}
			prog.done("Analysis complete")

			printSuccess("Analyzed %q", analysis.Title)
			printKeyValue("Authors", strings.Join(analysis.Authors, ", "))
			printKeyValue("Complexity", analysis.ComplexityLevel)
			printKeyValue("Findings", strings.Join(analysis.KeyFindings, "; "))

			if jsonOut != "" {
				data, err := json.MarshalIndent(analysis, "", "  ")
				if err != nil {
					return err
				}
				if err := os.MkdirAll(filepath.Dir(jsonOut), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(jsonOut, data, 0o644); err != nil {
					return err
				}
				printFile(jsonOut)
			}

			printNextStep("Generate a blog post", appName+" blog "+args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&jsonOut, "json", "", "write the analysis as JSON to this path")
	return cmd
}
