// Package cli implements the rulemaker command-line interface.
//
// # Commands
//
//   - layout: compute the diagram of a rule and write it as JSON
//   - render: paint a rule as SVG, PNG, DOT or layout JSON
//   - validate: report dangling references, duplicate ids and isolated steps
//   - step: add, remove, rename, swap or move steps of a rule file
//   - edit: interactive terminal editor
//   - serve: HTTP layout service
//   - cache, config, completion: housekeeping
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is attached to the command context and handed to the pipeline runner.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/rulemaker/pkg/buildinfo"
	"github.com/matzehuels/rulemaker/pkg/cache"
	"github.com/matzehuels/rulemaker/pkg/config"
	"github.com/matzehuels/rulemaker/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "rulemaker"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a CLI logging to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the configuration loaded for the running command.
func (c *CLI) Config() config.Config { return c.cfg }

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Rulemaker lays out and edits guidance rule graphs",
		Long:         `Rulemaker reads step rules (directed graphs of guided UI steps), lays them out with a main-flow layout, routes their connectors and renders or edits them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			c.Logger.Debug("loaded config", "path", c.configPath, "cache", cfg.Cache.Backend)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/rulemaker/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.stepCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner on the configured cache backend.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(store, nil, c.Logger)
	runner.TTL = c.cfg.Cache.TTL
	return runner, nil
}

// openCache opens the configured backend. An unreachable redis degrades to
// no caching with a warning.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	store, err := cache.Open(ctx, c.cfg.CacheOptions())
	if err != nil {
		if errors.Is(err, cache.ErrUnavailable) {
			c.Logger.Warn("cache unavailable, continuing without", "backend", c.cfg.Cache.Backend, "error", err)
			return cache.NewNullCache(), nil
		}
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return store, nil
}

// pipelineOptions returns the options shared by layout and render.
func (c *CLI) pipelineOptions(source string) pipeline.Options {
	return pipeline.Options{
		Source: source,
		Config: c.cfg.Diagram(),
		Logger: c.Logger,
	}
}

// basePath derives the output base from the -o flag and the input file.
// Without -o the base sits next to the input, or in outputDir when set.
// Known format extensions on output are stripped so that several formats
// can share one base.
func basePath(output, input, outputDir string) string {
	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		if outputDir != "" {
			base = filepath.Join(outputDir, filepath.Base(base))
		}
		return base
	}
	if strings.HasSuffix(output, pipeline.Extension(pipeline.FormatJSON)) {
		return strings.TrimSuffix(output, pipeline.Extension(pipeline.FormatJSON))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
