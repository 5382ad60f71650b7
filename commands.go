package main

import (
	"github.com/bodul/autocross/internal/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	genTopic   string
	genContent string
	genFile    string
	genCount   int
)

var (
	rootCmd = &cobra.Command{
		Use:           "autocross",
		Short:         "Generate, validate and serve classroom crosswords",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts := logger.FromEnv()
			if logLevel != "" {
				opts.Level = logLevel
			}
			logger.Init(opts)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe, // cmd_serve.go
	}

	validateCmd = &cobra.Command{
		Use:   "validate [layout.json|layout.yaml]",
		Short: "Check that a crossword layout is one connected, consistent grid",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate, // cmd_tools.go
	}

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate one crossword with Gemini and print it as JSON",
		Args:  cobra.NoArgs,
		RunE:  runGenerate, // cmd_tools.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	generateCmd.Flags().StringVar(&genTopic, "topic", "", "topic of the crossword")
	generateCmd.Flags().StringVar(&genContent, "content", "", "source text to draw words from")
	generateCmd.Flags().StringVar(&genFile, "file", "", "source document (pdf, doc, docx, ppt, pptx)")
	generateCmd.Flags().IntVar(&genCount, "count", defaultWordCount, "number of words")

	rootCmd.AddCommand(serveCmd, validateCmd, generateCmd)
}
