// Package cli wires the sharptranslate command line: flag parsing, logger
// setup, signal handling, and exit-code mapping.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/retznutz/SharpTranslate/internal/config"
	"github.com/retznutz/SharpTranslate/internal/doctree"
	"github.com/retznutz/SharpTranslate/internal/pipeline"
	"github.com/retznutz/SharpTranslate/internal/textutil"
	"github.com/retznutz/SharpTranslate/internal/translator"
)

// Exit codes.
const (
	exitRuntimeError = 1
	exitConfigError  = 2
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := newRootCmd()
	rootCmd.AddCommand(newInspectCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitRuntimeError)
	}
}

// flagOverrides records which settings were given on the command line so
// they win over the environment and the project file.
type flagOverrides struct {
	input      string
	output     string
	language   string
	tone       string
	model      string
	terms      []string
	configFile string
	batchSize  int
	maxRetries int
	batchDelay int
	timeout    int
	baseURL    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	var fo flagOverrides

	cmd := &cobra.Command{
		Use:           "sharptranslate",
		Short:         "Translate the string values of a JSON document, preserving structure and markup",
		Long:          "sharptranslate translates every string leaf of a JSON document into a target language\nwhile keeping structure, key order, HTML tags, placeholders, and protected terms intact.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, fo)
			if err != nil {
				log.Error().Err(err).Msg("Invalid configuration")
				os.Exit(exitConfigError)
			}
			if cfg.Verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			ctx, cancel := setupContext()
			defer cancel()

			client := translator.NewOpenAIClient(cfg.BaseURL, cfg.APIKey, translator.Params{
				TargetLanguage: cfg.TargetLanguage,
				Tone:           cfg.Tone,
				Model:          cfg.Model,
			}, cfg.RequestTimeout)

			if err := pipeline.Run(ctx, cfg, client); err != nil {
				log.Error().Err(err).Msg("Translation failed")
				return err
			}
			return nil
		},
	}

	addConfigFlags(cmd, &fo)
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func newInspectCmd() *cobra.Command {
	var fo flagOverrides

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the translatable string leaves of a document without calling the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(fo.input)
			if err != nil {
				log.Error().Err(err).Msg("Read input")
				return err
			}
			tree, err := doctree.Parse(data)
			if err != nil {
				log.Error().Err(err).Msg("Parse input")
				return err
			}

			leaves := doctree.CollectLeaves(tree)
			for _, leaf := range leaves {
				fmt.Printf("%-40s %s\n", leaf.Path, textutil.Truncate(leaf.Text, 60))
			}
			fmt.Printf("\n%d string leaves\n", len(leaves))
			return nil
		},
	}

	cmd.Flags().StringVarP(&fo.input, "input", "i", "", "input JSON document")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func addConfigFlags(cmd *cobra.Command, fo *flagOverrides) {
	f := cmd.Flags()
	f.StringVarP(&fo.input, "input", "i", "", "input JSON document")
	f.StringVarP(&fo.output, "output", "o", "", "output path for the translated document")
	f.StringVarP(&fo.language, "language", "l", "", "target language (locale identifier, e.g. de or pt-BR)")
	f.StringVar(&fo.tone, "tone", "", "tone/style hint for the translator")
	f.StringVar(&fo.model, "model", "", "model identifier")
	f.StringArrayVar(&fo.terms, "protect", nil, "protected term left untranslated (repeatable)")
	f.StringVar(&fo.configFile, "config", "", "sharptranslate.yaml project file")
	f.IntVar(&fo.batchSize, "batch-size", 0, "maximum strings per translation request")
	f.IntVar(&fo.maxRetries, "max-retries", 0, "attempts per batch before giving up")
	f.IntVar(&fo.batchDelay, "batch-delay", 0, "pause between batches in milliseconds")
	f.IntVar(&fo.timeout, "timeout", 0, "per-request timeout in seconds")
	f.StringVar(&fo.baseURL, "base-url", "", "API base URL")
	f.BoolVarP(&fo.verbose, "verbose", "v", false, "enable debug logging")
}

// buildConfig layers environment, project file, and flags (flags last).
func buildConfig(cmd *cobra.Command, fo flagOverrides) (config.Config, error) {
	cfg := config.Load()

	if fo.configFile != "" {
		if err := cfg.ApplyFile(fo.configFile); err != nil {
			return cfg, err
		}
	}

	cfg.InputPath = fo.input
	cfg.OutputPath = fo.output
	cfg.ProtectedTerms = append(cfg.ProtectedTerms, fo.terms...)
	cfg.Verbose = fo.verbose

	if fo.language != "" {
		cfg.TargetLanguage = fo.language
	}

	if fo.tone != "" {
		cfg.Tone = fo.tone
	}
	if fo.model != "" {
		cfg.Model = fo.model
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = fo.batchSize
	}
	if cmd.Flags().Changed("max-retries") {
		cfg.MaxRetries = fo.maxRetries
	}
	if cmd.Flags().Changed("batch-delay") {
		cfg.BatchDelay = time.Duration(fo.batchDelay) * time.Millisecond
	}
	if cmd.Flags().Changed("timeout") {
		cfg.RequestTimeout = time.Duration(fo.timeout) * time.Second
	}
	if fo.baseURL != "" {
		cfg.BaseURL = fo.baseURL
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}
