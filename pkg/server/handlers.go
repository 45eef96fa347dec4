package server

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/nikogura/cv-convert/pkg/pipeline"
	"github.com/nikogura/cv-convert/pkg/scorer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Form fields accepted by the conversion endpoints.
const (
	fieldCV       = "cv"
	fieldTemplate = "template"
	fieldAPIKey   = "api_key"
	fieldStrategy = "strategy"
	fieldGrammar  = "grammar"
	fieldMode     = "mode"
	fieldProvider = "provider"
	fieldModel    = "model"
)

// ExtractResponse is the body of a successful extract call.
type ExtractResponse struct {
	pipeline.Result
	Lessons []string `json:"lessons"`
}

func (s *Server) health(c *fiber.Ctx) (err error) {
	err = c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	return err
}

// convert answers with the filled template as a DOCX attachment.
func (s *Server) convert(c *fiber.Ctx) (err error) {
	var result pipeline.Result
	result, err = s.run(c)
	if err != nil {
		return err
	}

	c.Attachment(result.Filename)
	c.Set(fiber.HeaderContentType, result.ContentType)
	c.Set("X-Completeness", strconv.Itoa(result.Score.Percent))

	err = c.Status(fiber.StatusOK).Send(result.Document)
	return err
}

// extract answers with the extracted sections and their completeness score.
func (s *Server) extract(c *fiber.Ctx) (err error) {
	var result pipeline.Result
	result, err = s.run(c)
	if err != nil {
		return err
	}

	resp := ExtractResponse{
		Result:  result,
		Lessons: (&scorer.Scorer{}).Lessons(result.Score),
	}

	err = c.Status(fiber.StatusOK).JSON(resp)
	return err
}

func (s *Server) run(c *fiber.Ctx) (result pipeline.Result, err error) {
	req, err := s.buildRequest(c)
	if err != nil {
		return result, err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.cfg.RequestTimeout())
	defer cancel()

	log := s.logger.WithFields(logrus.Fields{
		"request_id": requestIDOf(c),
		"source":     req.SourceName,
	})
	log.Debug("converting upload")

	result, err = s.pipeline.Run(ctx, req)
	if err != nil {
		log.WithField("kind", pipeline.KindOf(err).String()).WithError(err).Warn("conversion failed")
		return result, err
	}

	return result, err
}

// buildRequest reads the uploads and applies per-request overrides to a copy of the configuration.
// The configuration is never modified, and request API keys are never stored.
func (s *Server) buildRequest(c *fiber.Ctx) (req pipeline.Request, err error) {
	limit := int64(s.cfg.Server.MaxUploadBytes)

	cvHeader, err := c.FormFile(fieldCV)
	if err != nil || cvHeader == nil {
		err = fiber.NewError(fiber.StatusBadRequest, "cv file is required")
		return req, err
	}

	req.SourceName = cvHeader.Filename
	req.Source, err = readUpload(cvHeader, limit)
	if err != nil {
		return req, err
	}

	templateHeader, tErr := c.FormFile(fieldTemplate)
	if tErr == nil && templateHeader != nil {
		req.TemplateName = templateHeader.Filename
		req.Template, err = readUpload(templateHeader, limit)
		if err != nil {
			return req, err
		}
	}

	cfg := s.cfg
	cfg.OverrideProvider(formValue(c, fieldProvider), formValue(c, fieldModel))
	if v := formValue(c, fieldStrategy); v != "" {
		cfg.Strategy = v
	}
	if v := formValue(c, fieldGrammar); v != "" {
		cfg.Grammar = v
	}
	if v := formValue(c, fieldMode); v != "" {
		cfg.Mode = v
	}

	err = cfg.Validate()
	if err != nil {
		err = fiber.NewError(fiber.StatusBadRequest, err.Error())
		return req, err
	}

	req.Options = cfg.PipelineOptions()
	if v := formValue(c, fieldAPIKey); v != "" {
		req.Options.APIKey = v
	}

	return req, err
}

func formValue(c *fiber.Ctx, key string) (value string) {
	value = strings.TrimSpace(c.FormValue(key))
	return value
}

func readUpload(fh *multipart.FileHeader, limit int64) (data []byte, err error) {
	if fh.Size > limit {
		err = fiber.NewError(fiber.StatusRequestEntityTooLarge, "file "+fh.Filename+" exceeds the upload limit")
		return data, err
	}

	var f multipart.File
	f, err = fh.Open()
	if err != nil {
		err = fiber.NewError(fiber.StatusBadRequest, "failed to open uploaded file "+fh.Filename)
		return data, err
	}
	defer f.Close()

	data, err = io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		err = fiber.NewError(fiber.StatusBadRequest, errors.Wrapf(err, "failed to read uploaded file %s", fh.Filename).Error())
		return data, err
	}
	if int64(len(data)) > limit {
		err = fiber.NewError(fiber.StatusRequestEntityTooLarge, "file "+fh.Filename+" exceeds the upload limit")
		return data, err
	}

	return data, err
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message   string `json:"message"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusFor maps a pipeline failure to an HTTP status.
func StatusFor(err error) (status int) {
	switch pipeline.KindOf(err) {
	case pipeline.KindPrecondition, pipeline.KindTemplate:
		status = http.StatusBadRequest
	case pipeline.KindExtraction:
		status = http.StatusUnprocessableEntity
	case pipeline.KindService:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	return status
}

func (s *Server) handleError(c *fiber.Ctx, err error) (sendErr error) {
	resp := ErrorResponse{
		Message:   err.Error(),
		RequestID: requestIDOf(c),
	}

	var status int
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		resp.Message = fiberErr.Message
	} else {
		status = StatusFor(err)
		resp.Kind = pipeline.KindOf(err).String()
	}

	if status >= http.StatusInternalServerError {
		s.logger.WithField("request_id", resp.RequestID).WithError(err).Error("request failed")
	}

	sendErr = c.Status(status).JSON(resp)
	return sendErr
}
