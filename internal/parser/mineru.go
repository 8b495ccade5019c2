package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jawsbaek/exam-pdf-parser/internal/config"
	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
)

// minerUWeights models the process-wide "loaded model weights" for the
// mineru variant: initialized once (a health probe against the self-hosted
// MinerU service), reused by every subsequent call without re-locking.
var minerUWeights = &weightState{}

type minerUParser struct {
	cfg     config.MinerUConfig
	client  *http.Client
	pdfPath string
}

func newMinerUParser(cfg config.MinerUConfig) *minerUParser {
	return &minerUParser{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Minute},
	}
}

func (p *minerUParser) SetPDFPath(path string) { p.pdfPath = path }

type minerUResponse struct {
	Markdown      string `json:"markdown"`
	PagesTotal    int    `json:"pages_total"`
	PagesFailed   int    `json:"pages_failed"`
	FailureReason string `json:"failure_reason,omitempty"`
}

func (p *minerUParser) ExtractFromPDF(ctx context.Context) (Result, error) {
	if p.pdfPath == "" {
		return Result{}, exam.NewInputError("mineru parser: no pdf path set", nil)
	}

	if err := minerUWeights.ensureInitialized(p.loadModel); err != nil {
		return Result{}, exam.NewParserInitError("mineru model weights unavailable", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	file, err := os.Open(p.pdfPath)
	if err != nil {
		return Result{}, exam.NewInputError(fmt.Sprintf("open pdf %s", p.pdfPath), err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(p.pdfPath))
	if err != nil {
		return Result{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return Result{}, fmt.Errorf("copy pdf into form: %w", err)
	}

	_ = writer.WriteField("language", p.cfg.Language)
	_ = writer.WriteField("parse_method", p.cfg.ParseMethod)
	_ = writer.WriteField("formula_enable", boolField(p.cfg.FormulaEnable))
	_ = writer.WriteField("table_enable", boolField(p.cfg.TableEnable))
	_ = writer.WriteField("make_mode", p.cfg.MakeMode)

	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("close multipart writer: %w", err)
	}

	url := p.cfg.BaseURL + "/file_parse"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return Result{}, fmt.Errorf("build mineru request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{}, exam.NewParserRuntimeError("mineru request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, exam.NewParserRuntimeError("read mineru response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, exam.NewParserRuntimeError(
			fmt.Sprintf("mineru returned status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var parsed minerUResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, exam.NewParserRuntimeError("unmarshal mineru response", err)
	}

	if parsed.Markdown == "" && parsed.PagesFailed > 0 {
		return Result{}, exam.NewParserRuntimeError(
			fmt.Sprintf("layout analysis failed on all %d pages", parsed.PagesFailed), nil)
	}

	result := Result{Markdown: parsed.Markdown}
	if parsed.PagesFailed > 0 {
		result.Partial = true
		result.PartialReason = fmt.Sprintf("%d of %d pages failed layout analysis", parsed.PagesFailed, parsed.PagesTotal)
	}
	return result, nil
}

// loadModel is the one-time initialization step: a lightweight health probe
// confirming the self-hosted MinerU service has its weights resident. Real
// deployments point MINERU_BASE_URL at a warmed-up instance; this probe
// fails fast with ParserInitError when it is unreachable so the orchestrator
// never silently proceeds without a working layout engine.
func (p *minerUParser) loadModel() error {
	req, err := http.NewRequest(http.MethodGet, p.cfg.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("mineru health check returned status %d", resp.StatusCode)
	}
	return nil
}

func boolField(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
