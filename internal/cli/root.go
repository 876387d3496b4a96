package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/scholarshare/scholarshare/pkg/buildinfo"
	"github.com/scholarshare/scholarshare/pkg/config"
)

// CLI holds shared state for all commands. Configuration is loaded once in
// the root PersistentPreRun and consumed lazily by the wiring helpers in
// app.go.
type CLI struct {
	cfgPath string
	verbose bool
	noCache bool

	settings *config.Settings
}

// Execute runs the scholarshare CLI until completion or ctx cancellation.
//
// All commands support --verbose (-v) for debug-level logging; the logger is
// attached to the command context and retrieved via loggerFromContext.
func Execute(ctx context.Context) error {
	c := &CLI{}

	root := &cobra.Command{
		Use:          appName,
		Short:        "ScholarShare turns research papers into publication-ready content",
		Long:         `ScholarShare analyzes research-paper text and generates blog posts, social media bundles, LaTeX conference posters, and Beamer presentation decks, with automated layout review and repair.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if c.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))

			cfg, err := config.Load(c.cfgPath)
			if err != nil {
				return err
			}
			c.settings = config.NewSettings(cfg)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.cfgPath, "config", defaultConfigPath(), "path to TOML config file")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "bypass the analysis and inspection cache")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.blogCommand())
	root.AddCommand(c.socialCommand())
	root.AddCommand(c.posterCommand())
	root.AddCommand(c.deckCommand())
	root.AddCommand(c.publishCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root.ExecuteContext(ctx)
}
