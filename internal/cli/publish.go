package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scholarshare/scholarshare/pkg/blog"
	"github.com/scholarshare/scholarshare/pkg/paper"
	"github.com/scholarshare/scholarshare/pkg/publish"
)

// publishCommand creates the publish command group.
func (c *CLI) publishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish generated content to external platforms",
	}

	cmd.AddCommand(c.publishDevtoCommand())
	cmd.AddCommand(c.publishListCommand())
	return cmd
}

// publishDevtoCommand creates the "publish devto" subcommand.
func (c *CLI) publishDevtoCommand() *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "devto <post.md>",
		Short: "Publish a generated blog post to dev.to",
		Long:  "Publishes a markdown post (as written by the blog command) to dev.to. Posts are created as drafts unless --live is given. Requires DEVTO_API_KEY.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			content := string(data)
			post := blog.Post{
				Title:       blog.ExtractTitle(content),
				Content:     blog.CleanContent(content),
				Tags:        blog.Tags(content, paper.Analysis{}),
				ReadingTime: blog.ReadingTime(content),
			}

			client := publish.NewDevtoClient(c.cfg().DevtoAPIKey, "")
			spin := newSpinnerWithContext(ctx, "Publishing to dev.to...")
			spin.Start()
			article, err := client.Publish(ctx, post, live)
			spin.Stop()
			if err != nil {
				return err
			}

			if article.Published {
				printSuccess("Published %q", article.Title)
			} else {
				printSuccess("Created draft %q", article.Title)
			}
			printKeyValue("URL", article.URL)
			return nil
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "publish immediately instead of creating a draft")
	return cmd
}

// publishListCommand creates the "publish list" subcommand.
func (c *CLI) publishListCommand() *cobra.Command {
	var perPage int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your published dev.to articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := publish.NewDevtoClient(c.cfg().DevtoAPIKey, "")
			articles, err := client.ListPublished(cmd.Context(), perPage)
			if err != nil {
				return err
			}
			if len(articles) == 0 {
				printInfo("No published articles")
				return nil
			}
			for _, a := range articles {
				fmt.Println(StyleValue.Render(a.Title) + " " + StyleLink.Render(a.URL))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&perPage, "limit", 10, "maximum number of articles to list")
	return cmd
}
