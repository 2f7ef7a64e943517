package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alnah/go-html2pdf"
	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
)

// Document formats accepted in request bodies.
const (
	formatHTML     = "html"
	formatMarkdown = "markdown"
)

type handlers struct {
	conv    Converter
	md      MarkdownRenderer
	cfg     Config
	version string
	logger  *slog.Logger
}

type document struct {
	HTML    string            `json:"html" doc:"Document source (HTML, or Markdown when format is markdown)"`
	Format  string            `json:"format,omitempty" enum:"html,markdown" doc:"Source format (default html)"`
	Title   string            `json:"title,omitempty" doc:"Document title for Markdown sources"`
	Options *html2pdf.Options `json:"options,omitempty" doc:"Print options; omitted fields use the server defaults"`
}

type convertInput struct {
	Body document
}

type pdfOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

type batchInput struct {
	Body struct {
		Requests []document `json:"requests" minItems:"1" doc:"Documents to convert, results keep this order"`
		FailFast bool       `json:"fail_fast,omitempty" doc:"Abort the whole batch on the first failure"`
	}
}

type batchItem struct {
	Index int    `json:"index"`
	PDF   []byte `json:"pdf,omitempty" doc:"Base64-encoded PDF"`
	Error string `json:"error,omitempty"`
}

type batchOutput struct {
	Body struct {
		BatchID   string      `json:"batch_id"`
		Succeeded int         `json:"succeeded"`
		Failed    int         `json:"failed"`
		Results   []batchItem `json:"results"`
	}
}

type healthOutput struct {
	Body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
}

type statsOutput struct {
	Body html2pdf.Stats
}

func (h *handlers) register(api huma.API) {
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			out.Body.Version = h.version
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-stats", Method: http.MethodGet, Path: "/api/v1/stats", Summary: "Tab pool and browser session statistics", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*statsOutput, error) {
			return &statsOutput{Body: h.conv.Stats()}, nil
		})

	huma.Register(api, huma.Operation{
		OperationID:  "convert",
		Method:       http.MethodPost,
		Path:         "/api/v1/convert",
		Summary:      "Convert one document to PDF",
		Tags:         []string{"Convert"},
		MaxBodyBytes: h.cfg.MaxBodyBytes,
	}, h.convert)

	huma.Register(api, huma.Operation{
		OperationID:  "convert-batch",
		Method:       http.MethodPost,
		Path:         "/api/v1/convert/batch",
		Summary:      "Convert several documents to PDF",
		Tags:         []string{"Convert"},
		MaxBodyBytes: h.cfg.MaxBodyBytes,
	}, h.convertBatch)
}

func (h *handlers) convert(ctx context.Context, input *convertInput) (*pdfOutput, error) {
	html, err := h.source(ctx, input.Body)
	if err != nil {
		return nil, err
	}

	pdf, err := h.conv.Convert(ctx, html, input.Body.Options)
	if err != nil {
		h.logger.Warn("conversion failed", "error", err)
		return nil, mapErr(err)
	}

	return &pdfOutput{
		ContentType:        "application/pdf",
		ContentDisposition: `inline; filename="document.pdf"`,
		Body:               pdf,
	}, nil
}

func (h *handlers) convertBatch(ctx context.Context, input *batchInput) (*batchOutput, error) {
	docs := input.Body.Requests
	if h.cfg.MaxBatchSize > 0 && len(docs) > h.cfg.MaxBatchSize {
		return nil, huma.Error400BadRequest(fmt.Sprintf("batch has %d documents, limit is %d", len(docs), h.cfg.MaxBatchSize))
	}

	batchID := uuid.NewString()
	logger := h.logger.With("batch_id", batchID, "documents", len(docs))
	logger.Info("batch started", "fail_fast", input.Body.FailFast)

	out := &batchOutput{}
	out.Body.BatchID = batchID
	out.Body.Results = make([]batchItem, len(docs))

	// Markdown is rendered up front so the converter only sees HTML.
	// Items that fail here never reach the browser.
	reqs := make([]html2pdf.Request, 0, len(docs))
	index := make([]int, 0, len(docs))
	for i, doc := range docs {
		out.Body.Results[i].Index = i
		html, err := h.source(ctx, doc)
		if err != nil {
			if input.Body.FailFast {
				return nil, err
			}
			out.Body.Results[i].Error = errorMessage(err)
			continue
		}
		reqs = append(reqs, html2pdf.Request{HTML: html, Options: doc.Options})
		index = append(index, i)
	}

	if input.Body.FailFast {
		pdfs, err := h.conv.ConvertBatch(ctx, reqs)
		if err != nil {
			logger.Warn("batch failed", "error", err)
			return nil, mapErr(err)
		}
		for j, pdf := range pdfs {
			out.Body.Results[index[j]].PDF = pdf
		}
	} else {
		for j, r := range h.conv.ConvertBatchResults(ctx, reqs) {
			if r.Err != nil {
				out.Body.Results[index[j]].Error = r.Err.Error()
				continue
			}
			out.Body.Results[index[j]].PDF = r.PDF
		}
	}

	for _, item := range out.Body.Results {
		if item.Error != "" {
			out.Body.Failed++
		} else {
			out.Body.Succeeded++
		}
	}
	logger.Info("batch finished", "succeeded", out.Body.Succeeded, "failed", out.Body.Failed)
	return out, nil
}

// source returns the HTML to convert, rendering Markdown when asked.
func (h *handlers) source(ctx context.Context, doc document) (string, error) {
	switch strings.ToLower(doc.Format) {
	case "", formatHTML:
		return doc.HTML, nil
	case formatMarkdown:
		if h.md == nil {
			return "", huma.Error400BadRequest("markdown input is not enabled")
		}
		html, err := h.md.Render(ctx, doc.Title, doc.HTML)
		if err != nil {
			return "", huma.Error400BadRequest("rendering markdown: " + err.Error())
		}
		return html, nil
	default:
		return "", huma.Error400BadRequest(fmt.Sprintf("unknown format %q", doc.Format))
	}
}

func errorMessage(err error) string {
	var model *huma.ErrorModel
	if errors.As(err, &model) {
		return model.Detail
	}
	return err.Error()
}
