package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/nikogura/cv-convert/pkg/config"
	"github.com/nikogura/cv-convert/pkg/pipeline"
	"github.com/nikogura/cv-convert/pkg/server"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listenAddr string

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion HTTP service",
	Long: `Run the HTTP service:

  GET  /api/v1/health   liveness probe
  POST /api/v1/convert  multipart "cv" (and optional "template") -> .docx
  POST /api/v1/extract  multipart "cv" -> sections and completeness as JSON

Form fields api_key, strategy, grammar, mode, provider and model override the
configuration for one request. Keys sent with a request are never stored.

Example:
  cv-convert serve
  cv-convert serve --listen :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	logger := logrus.New()
	setupLogging(logger, true)

	var cfg config.Config
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return err
	}

	addr := cfg.Server.Listen
	if listenAddr != "" {
		addr = listenAddr
	}

	logger.WithFields(logrus.Fields{
		"provider":         cfg.Provider,
		"strategy":         cfg.Strategy,
		"grammar":          cfg.Grammar,
		"template":         cfg.TemplatePath,
		"max_upload_bytes": cfg.Server.MaxUploadBytes,
		"request_timeout":  cfg.RequestTimeout().String(),
	}).Info("starting cv-convert service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, pipeline.New(logger), logger)
	err = srv.Listen(ctx, addr)
	return err
}
