package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/nikogura/cv-convert/pkg/config"
	"github.com/nikogura/cv-convert/pkg/pipeline"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HeaderRequestID carries the request id on every response.
const HeaderRequestID = "X-Request-Id"

const localRequestID = "requestId"

// multipartOverhead leaves room for form fields and part headers on top of two uploads.
const multipartOverhead = 1 << 20

// Server exposes the conversion pipeline over HTTP.
type Server struct {
	cfg      config.Config
	pipeline *pipeline.Pipeline
	logger   *logrus.Logger
	app      *fiber.App
}

// New builds the fiber app and registers the routes. cfg must already be validated.
func New(cfg config.Config, p *pipeline.Pipeline, logger *logrus.Logger) (s *Server) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if p == nil {
		p = pipeline.New(logger)
	}

	s = &Server{
		cfg:      cfg,
		pipeline: p,
		logger:   logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "cv-convert",
		BodyLimit:             2*cfg.Server.MaxUploadBytes + multipartOverhead,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(s.requestID)
	s.register()

	return s
}

func (s *Server) register() {
	v1 := s.app.Group("/api").Group("/v1")

	v1.Get("/health", s.health)
	v1.Post("/convert", s.convert)
	v1.Post("/extract", s.extract)
}

// App returns the underlying fiber app, e.g. for app.Test.
func (s *Server) App() (app *fiber.App) {
	app = s.app
	return app
}

// Listen serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) (err error) {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()

	s.logger.WithField("addr", addr).Info("HTTP server listening")

	select {
	case err = <-errCh:
		if err != nil {
			err = errors.Wrap(err, "server stopped")
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	err = s.app.ShutdownWithTimeout(10 * time.Second)
	if err != nil {
		err = errors.Wrap(err, "shutdown failed")
		return err
	}

	return err
}

// requestID tags the request and its log line with an id, reusing the caller's when given.
func (s *Server) requestID(c *fiber.Ctx) (err error) {
	id := c.Get(HeaderRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals(localRequestID, id)
	c.Set(HeaderRequestID, id)

	start := time.Now()
	err = c.Next()
	if err != nil {
		// Write the error response now so the logged status is the real one.
		err = s.handleError(c, err)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": id,
		"method":     c.Method(),
		"path":       c.Path(),
		"status":     c.Response().StatusCode(),
		"duration":   time.Since(start).String(),
	}).Info("request handled")

	return err
}

func requestIDOf(c *fiber.Ctx) (id string) {
	id, _ = c.Locals(localRequestID).(string)
	return id
}
