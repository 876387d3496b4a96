package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scholarshare/scholarshare/pkg/blog"
)

// blogCommand creates the blog command.
func (c *CLI) blogCommand() *cobra.Command {
	var (
		outDir   string
		withHTML bool
	)

	cmd := &cobra.Command{
		Use:   "blog <paper>",
		Short: "Generate a beginner-friendly blog post from a paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cch := c.newCache(ctx)
			defer cch.Close()

			analysis, err := c.analyzePaper(ctx, args[0], cch)
			if err != nil {
				return err
			}

			spin := newSpinnerWithContext(ctx, "Writing blog post...")
			spin.Start()
			post, err := blog.NewGenerator(c.client()).Generate(ctx, analysis)
			spin.Stop()
			if err != nil {
				return err
			}

			if outDir == "" {
				if outDir, err = c.outputDir(); err != nil {
					return err
				}
			}
			mdPath := filepath.Join(outDir, "blog.md")
			content := fmt.Sprintf("# %s\n\n%s\n", post.Title, post.Content)
			if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
				return err
			}

			printSuccess("Generated %q", post.Title)
			printKeyValue("Tags", strings.Join(post.Tags, ", "))
			printKeyValue("Reading", fmt.Sprintf("%d min", post.ReadingTime))
			printFile(mdPath)

			if withHTML {
				page, err := blog.ExportPage(post)
				if err != nil {
					return err
				}
				htmlPath := filepath.Join(outDir, "blog.html")
				if err := os.WriteFile(htmlPath, []byte(page), 0o644); err != nil {
					return err
				}
				printFile(htmlPath)
			}

			printNextStep("Publish it", appName+" publish "+mdPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default from config)")
	cmd.Flags().BoolVar(&withHTML, "html", false, "also export a standalone HTML page")
	return cmd
}
