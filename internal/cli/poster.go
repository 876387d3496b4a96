package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scholarshare/scholarshare/pkg/assemble"
	"github.com/scholarshare/scholarshare/pkg/repair"
)

// posterCommand creates the poster command.
func (c *CLI) posterCommand() *cobra.Command {
	var (
		style       string
		orientation string
	)

	cmd := &cobra.Command{
		Use:   "poster <paper>",
		Short: "Generate a LaTeX conference poster from a paper",
		Long:  "Poster generates LaTeX poster markup, compiles it, and runs an automated layout review loop: a vision model inspects the rendered page and suggests repairs until the layout fits or the attempt budget runs out.",
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
			spin := newSpinnerWithContext(ctx, "Drafting poster markup...")
			spin.Start()
			doc, err := assemble.New(client, logger).Poster(ctx, analysis, assemble.PosterStyle(style), orientation)
			spin.Stop()
			if err != nil {
				return err
			}

			outDir, err := c.outputDir()
			if err != nil {
				return err
			}
			workDir := filepath.Join(outDir, "poster")

			opts := repair.PosterOptions(workDir)
			opts.Logger = logger
			engine := repair.New(c.renderer(), c.inspector(client, logger), cch, nil, opts)

			spin = newSpinnerWithContext(ctx, "Rendering and reviewing layout...")
			spin.Start()
			res, err := engine.Run(ctx, doc, analysis.Title)
			spin.Stop()
			if err != nil {
				return err
			}

			reportSession(res)
			return nil
		},
	}

	cmd.Flags().StringVar(&style, "style", string(assemble.StyleIEEE), "poster style (ieee, acm, nature)")
	cmd.Flags().StringVar(&orientation, "orientation", assemble.OrientationPortrait, "page orientation (portrait, landscape)")
	return cmd
}

// reportSession prints the outcome of a repair session.
func reportSession(res *repair.Result) {
	switch res.Reason {
	case repair.ReasonFit:
		printSuccess("Layout accepted after %d attempt(s)", len(res.Attempts))
	case repair.ReasonFallback:
		printWarning("Compilation failed; wrote an HTML fallback instead")
		printDetail("%s", res.Rationale)
	case repair.ReasonUninspected:
		printWarning("Artifact rendered but could not be inspected; returning it as-is")
	default:
		printWarning("Layout not fully accepted (%s)", res.Reason)
		if res.Rationale != "" {
			printDetail("%s", res.Rationale)
		}
	}
	printKeyValue("Pages", fmt.Sprintf("%d", res.Artifact.Pages))
	printFile(res.Artifact.Path)
}
