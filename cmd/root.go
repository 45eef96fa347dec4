package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var configFile string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "cv-convert",
	Short: "Convert CVs into a standard Word template",
	Long: `cv-convert reads a CV (PDF, DOCX, text or HTML), extracts its sections and
writes them into a standard consultant CV template (.docx).

Sections are extracted with a language model (OpenAI or Anthropic) or, without
any API key, with rule-based regex and entity strategies.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(logrus.StandardLogger(), false)
	},
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.cv-convert/config.json)")
}

// getVerbose returns the verbose flag value.
func getVerbose() (result bool) {
	result = verbose
	return result
}

// getConfigFile returns the config file path.
func getConfigFile() (result string) {
	result = configFile
	return result
}

// setupLogging sets the level from --verbose. The CLI logs text to stderr; the server logs JSON.
func setupLogging(logger *logrus.Logger, json bool) {
	logger.SetOutput(os.Stderr)
	if json {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	// Progress goes to stdout, so the CLI only logs warnings unless verbose.
	logger.SetLevel(logrus.WarnLevel)
	if json {
		logger.SetLevel(logrus.InfoLevel)
	}
	if getVerbose() {
		logger.SetLevel(logrus.DebugLevel)
	}
}
