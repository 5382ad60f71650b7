package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bodul/autocross/internal/crossword"
	perr "github.com/bodul/autocross/internal/errors"
	"github.com/bodul/autocross/internal/extract"
	"github.com/bodul/autocross/internal/generator"
	"github.com/bodul/autocross/internal/logger"

	"github.com/go-chi/chi/v5"
)

const defaultWordCount = 10

// handleCreateGeneration accepts a multipart form with topic, content,
// count and an optional file, and starts a background generation.
func (s *Server) handleCreateGeneration(w http.ResponseWriter, r *http.Request) {
	if s.model == nil {
		writeError(w, r, perr.New(perr.CodeUnavailable, "generation is not configured"))
		return
	}
	if !s.uploadRL.allow(clientIP(r)) {
		writeError(w, r, perr.New(perr.CodeTooManyRequests, "too many generation requests, try again in a minute"))
		return
	}

	req, err := s.parseGeneration(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := logger.WithRequestID(s.baseCtx, logger.RequestID(r.Context()))
	j := s.jobs.start(ctx, func(ctx context.Context, publish func(generator.Event)) (crossword.Result, error) {
		opts := s.genOpts
		opts.OnTransition = publish
		return generator.New(s.model, opts).Generate(ctx, req)
	})

	logger.C(r.Context()).Info().
		Str("job", j.id).
		Int("count", req.Count).
		Bool("attachment", req.Attachment != nil).
		Msg("generation started")

	w.Header().Set("Location", "/api/generations/"+j.id)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     j.id,
		"status": string(jobRunning),
		"events": "/api/generations/" + j.id + "/events",
	})
}

func (s *Server) parseGeneration(w http.ResponseWriter, r *http.Request) (generator.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.HTTP.UploadLimit)
	if err := r.ParseMultipartForm(s.cfg.HTTP.UploadLimit); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return generator.Request{}, perr.Newf(perr.CodeInvalidArgument, "upload exceeds %d bytes", s.cfg.HTTP.UploadLimit)
		}
		return generator.Request{}, perr.Wrap(err, perr.CodeValidation, "invalid form")
	}

	req := generator.Request{
		Topic:   strings.TrimSpace(r.FormValue("topic")),
		Content: strings.TrimSpace(r.FormValue("content")),
		Count:   defaultWordCount,
	}
	if v := r.FormValue("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return generator.Request{}, perr.New(perr.CodeValidation, "count must be a whole number")
		}
		req.Count = n
	}
	if req.Count < 1 || req.Count > generator.MaxCount {
		return generator.Request{}, perr.Newf(perr.CodeValidation, "count must be between 1 and %d", generator.MaxCount)
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return generator.Request{}, perr.Wrap(err, perr.CodeValidation, "invalid file upload")
	default:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return generator.Request{}, perr.Wrap(err, perr.CodeValidation, "read upload")
		}
		if err := attachDocument(&req, header.Filename, data); err != nil {
			if errors.Is(err, extract.ErrUnsupported) {
				return generator.Request{}, perr.Wrap(err, perr.CodeInvalidArgument, "unsupported file type: upload a pdf, doc, docx, ppt or pptx file")
			}
			return generator.Request{}, perr.Wrap(err, perr.CodeInvalidArgument, "could not read "+header.Filename)
		}
	}

	if req.Topic == "" && req.Content == "" && req.Attachment == nil {
		return generator.Request{}, perr.New(perr.CodeValidation, "a topic, content or file is required")
	}
	return req, nil
}

func (s *Server) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	j := s.jobs.get(chi.URLParam(r, "id"))
	if j == nil {
		jsonError(w, "generation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, j.view())
}

func (s *Server) handleGenerationEvents(w http.ResponseWriter, r *http.Request) {
	j := s.jobs.get(chi.URLParam(r, "id"))
	if j == nil {
		jsonError(w, "generation not found", http.StatusNotFound)
		return
	}
	c, backlog := s.jobs.subscribe(j)
	s.sse.Stream(w, r, c, backlog)
}

// attachDocument extracts the text of an uploaded file into req.Content.
// PDFs are also attached as-is so the model sees figures and layout.
func attachDocument(req *generator.Request, name string, data []byte) error {
	doc, err := extract.Extract(name, data)
	if err != nil {
		return err
	}
	if doc.Text != "" {
		req.Content = strings.TrimSpace(req.Content + "\n\n" + doc.Text)
	}
	if doc.Inline() {
		req.Attachment = &generator.Attachment{Data: data, MIMEType: doc.MIMEType}
	}
	return nil
}
