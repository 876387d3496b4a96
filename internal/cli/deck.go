package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scholarshare/scholarshare/pkg/assemble"
	"github.com/scholarshare/scholarshare/pkg/repair"
)

// deckCommand creates the deck command.
func (c *CLI) deckCommand() *cobra.Command {
	var maxSlides int

	cmd := &cobra.Command{
		Use:   "deck <paper>",
		Short: "Generate a Beamer presentation deck from a paper",
		Long:  "Deck plans a slide structure, generates TikZ diagrams for it, compiles the Beamer markup, and samples rendered slides through the layout review loop.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cch := c.newCache(ctx)
			defer cch.Close()

			analysis, err := c.analyzePaper(ctx, args[0], cch)
			if err != nil {
				return err
			}

			client := c.client()
			spin := newSpinnerWithContext(ctx, "Planning slides and drawing diagrams...")
			spin.Start()
			doc, plan, diagrams, err := assemble.New(client, logger).Deck(ctx, analysis, maxSlides)
			spin.Stop()
			if err != nil {
				return err
			}
			logger.Debug("deck planned", "slides", plan.TotalSlides, "diagrams", len(diagrams))

			outDir, err := c.outputDir()
			if err != nil {
				return err
			}
			workDir := filepath.Join(outDir, "deck")

			opts := repair.DeckOptions(workDir)
			opts.Logger = logger
			engine := repair.New(c.renderer(), c.inspector(client, logger), cch, nil, opts)

			spin = newSpinnerWithContext(ctx, "Rendering and reviewing slides...")
			spin.Start()
			res, err := engine.Run(ctx, doc, analysis.Title)
			spin.Stop()
			if err != nil {
				return err
			}

			printInfo("Planned %d slides (%s style)", plan.TotalSlides, plan.Style)
			reportSession(res)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxSlides, "max-slides", assemble.DefaultMaxSlides, "maximum number of slides")
	return cmd
}
