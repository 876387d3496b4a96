package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scholarshare/scholarshare/pkg/social"
)

// socialCommand creates the social command.
func (c *CLI) socialCommand() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "social <paper>",
		Short: "Generate a social media bundle from a paper",
		Long:  "Social generates platform-tailored posts (LinkedIn, Twitter thread, Facebook, Instagram) plus promotional card images. Image generation failures fall back to locally rendered cards.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cch := c.newCache(ctx)
			defer cch.Close()

			analysis, err := c.analyzePaper(ctx, args[0], cch)
			if err != nil {
				return err
			}

			spin := newSpinnerWithContext(ctx, "Generating social content...")
			spin.Start()
			content, err := social.NewGenerator(c.client(), c.images()).Generate(ctx, analysis)
			spin.Stop()
			if err != nil {
				return err
			}

			if outDir == "" {
				if outDir, err = c.outputDir(); err != nil {
					return err
				}
			}

			data, err := json.MarshalIndent(content, "", "  ")
			if err != nil {
				return err
			}
			bundlePath := filepath.Join(outDir, "social.json")
			if err := os.WriteFile(bundlePath, data, 0o644); err != nil {
				return err
			}

			printSuccess("Generated posts for %d platforms", len(social.Platforms))
			printKeyValue("Thread", fmt.Sprintf("%d tweets", len(content.TwitterThread)))
			printKeyValue("Hashtags", strings.Join(content.Hashtags, " "))
			printFile(bundlePath)

			for _, platform := range social.Platforms {
				png, ok := content.Images[platform]
				if !ok {
					continue
				}
				imgPath := filepath.Join(outDir, platform+".png")
				if err := os.WriteFile(imgPath, png, 0o644); err != nil {
					return err
				}
				printFile(imgPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default from config)")
	return cmd
}
