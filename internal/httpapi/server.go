// Package httpapi exposes the assessment intake and report generation flow
// over HTTP. Handlers translate between JSON payloads and the domain
// packages; internal failures are logged server-side and never leak raw
// error text to clients.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gabiworks/leadintel/internal/assessment"
	"github.com/gabiworks/leadintel/internal/htmlreport"
	"github.com/gabiworks/leadintel/internal/pipeline"
	"github.com/gabiworks/leadintel/internal/reportstore"
	"github.com/gabiworks/leadintel/internal/synthesis"
)

// PDFRenderer turns a finished report into a PDF document. Satisfied by
// htmlreport.ChromiumPDFRenderer; nil disables the PDF endpoint.
type PDFRenderer interface {
	Render(ctx context.Context, report synthesis.Report) ([]byte, error)
}

// GenerateTimeout bounds one report run, including external research calls.
const GenerateTimeout = 5 * time.Minute

type Server struct {
	store    *reportstore.Store
	pipeline *pipeline.Pipeline
	pdf      PDFRenderer
	now      func() time.Time
}

func NewServer(store *reportstore.Store, pl *pipeline.Pipeline, pdf PDFRenderer) http.Handler {
	s := &Server{
		store:    store,
		pipeline: pl,
		pdf:      pdf,
		now:      time.Now,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/assessments", s.handleCreateAssessment)
	mux.HandleFunc("/v1/assessments/", s.handleAssessmentByID)
	mux.HandleFunc("/v1/reports/", s.handleReportByID)
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

type apiError struct {
	Status  int
	Code    string
	Message string
}

const (
	codeValidation = "validation"
	codeNotFound   = "not_found"
	codeFrozen     = "frozen"
	codeInternal   = "internal"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAPIError(w http.ResponseWriter, e apiError) {
	writeJSON(w, e.Status, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    e.Code,
			"message": e.Message,
		},
	})
}

// writeInternal logs the real error and hands the client a generic message.
func writeInternal(w http.ResponseWriter, op string, err error) {
	log.Printf("httpapi op=%s err=%v", op, err)
	writeAPIError(w, apiError{Status: 500, Code: codeInternal, Message: "internal error"})
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return blob, nil
}

func decodeJSONBody(r *http.Request, dst any) error {
	blob, err := readBody(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(blob, dst)
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var patch assessment.StepPatch
	if err := decodeJSONBody(r, &patch); err != nil {
		writeAPIError(w, apiError{Status: 400, Code: codeValidation, Message: "invalid JSON body"})
		return
	}
	in := assessment.New(s.now())
	if err := in.Apply(patch, s.now()); err != nil {
		writeAPIError(w, apiError{Status: 400, Code: codeValidation, Message: err.Error()})
		return
	}
	if err := s.store.SaveAssessment(in); err != nil {
		writeInternal(w, "create_assessment", err)
		return
	}
	writeJSON(w, 201, map[string]any{"ok": true, "assessment": in})
}

// handleAssessmentByID routes /v1/assessments/{id} and
// /v1/assessments/{id}/generate.
func (s *Server) handleAssessmentByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/assessments/")
	if generate := strings.TrimSuffix(path, "/generate"); generate != path {
		s.handleGenerate(w, r, strings.TrimSuffix(generate, "/"))
		return
	}
	if report := strings.TrimSuffix(path, "/report"); report != path {
		s.handleLatestReport(w, r, strings.TrimSuffix(report, "/"))
		return
	}
	id := strings.TrimSuffix(path, "/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		in, err := s.loadAssessment(w, id)
		if err != nil {
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true, "assessment": in})
	case http.MethodPatch:
		var patch assessment.StepPatch
		if err := decodeJSONBody(r, &patch); err != nil {
			writeAPIError(w, apiError{Status: 400, Code: codeValidation, Message: "invalid JSON body"})
			return
		}
		in, err := s.loadAssessment(w, id)
		if err != nil {
			return
		}
		if err := in.Apply(patch, s.now()); err != nil {
			if in.FrozenAt != nil {
				writeAPIError(w, apiError{Status: 409, Code: codeFrozen, Message: "assessment is frozen"})
				return
			}
			writeAPIError(w, apiError{Status: 400, Code: codeValidation, Message: err.Error()})
			return
		}
		if err := s.store.SaveAssessment(in); err != nil {
			writeInternal(w, "patch_assessment", err)
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true, "assessment": in})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, id string) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	in, err := s.loadAssessment(w, id)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), GenerateTimeout)
	defer cancel()

	res, err := s.pipeline.RunWithProgress(ctx, in, func(stage, message string) {
		log.Printf("httpapi generate assessment_id=%s stage=%s message=%q", id, stage, message)
	})
	if err != nil {
		// Validation failures carry user-actionable messages from the
		// assessment itself; everything else stays server-side.
		if pipeline.StageNameFromError(err) == "validate" {
			writeAPIError(w, apiError{Status: 422, Code: codeValidation, Message: errors.Unwrap(err).Error()})
			return
		}
		writeInternal(w, "generate", err)
		return
	}

	writeJSON(w, 200, map[string]any{
		"ok":              true,
		"report_id":       res.Report.ID,
		"report":          res.Report,
		"synthesis_path":  res.Report.Path,
		"stages_executed": res.Metadata.StagesExecuted,
		"degraded":        res.Metadata.ResearchError != "",
	})
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request, id string) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	report, _, err := s.store.LatestReportForAssessment(id)
	if err != nil {
		writeStoreError(w, "latest_report", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "report": report})
}

// handleReportByID routes /v1/reports/{id}, plus the /html, /pdf, and
// /feedback sub-resources.
func (s *Server) handleReportByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/reports/")
	id, sub := path, ""
	if i := strings.IndexByte(path, '/'); i >= 0 {
		id, sub = path[:i], strings.Trim(path[i:], "/")
	}
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch sub {
	case "":
		if !methodOnly(w, r, http.MethodGet) {
			return
		}
		report, _, err := s.store.GetReport(id)
		if err != nil {
			writeStoreError(w, "get_report", err)
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true, "report": report})
	case "html":
		s.handleReportHTML(w, r, id)
	case "pdf":
		s.handleReportPDF(w, r, id)
	case "feedback":
		s.handleFeedback(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request, id string) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	report, html, err := s.store.GetReport(id)
	if err != nil {
		writeStoreError(w, "report_html", err)
		return
	}
	if html == "" {
		html = htmlreport.Format(report)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, html)
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request, id string) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	if s.pdf == nil {
		writeAPIError(w, apiError{Status: 503, Code: codeInternal, Message: "pdf rendering is not configured"})
		return
	}
	report, _, err := s.store.GetReport(id)
	if err != nil {
		writeStoreError(w, "report_pdf", err)
		return
	}
	blob, err := s.pdf.Render(r.Context(), report)
	if err != nil {
		writeInternal(w, "report_pdf", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="ai-readiness-report.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Rating  int    `json:"rating"`
			Comment string `json:"comment"`
		}
		if err := decodeJSONBody(r, &req); err != nil {
			writeAPIError(w, apiError{Status: 400, Code: codeValidation, Message: "invalid JSON body"})
			return
		}
		if req.Rating < 1 || req.Rating > 5 {
			writeAPIError(w, apiError{Status: 400, Code: codeValidation, Message: "rating must be between 1 and 5"})
			return
		}
		// Reject feedback against reports that were never stored.
		if _, _, err := s.store.GetReport(id); err != nil {
			writeStoreError(w, "feedback", err)
			return
		}
		fb := reportstore.Feedback{
			ReportID:  id,
			Rating:    req.Rating,
			Comment:   strings.TrimSpace(req.Comment),
			CreatedAt: s.now(),
		}
		if err := s.store.SaveFeedback(fb); err != nil {
			writeInternal(w, "feedback", err)
			return
		}
		writeJSON(w, 201, map[string]any{"ok": true})
	case http.MethodGet:
		items, err := s.store.FeedbackForReport(id)
		if err != nil {
			writeInternal(w, "list_feedback", err)
			return
		}
		writeJSON(w, 200, map[string]any{"feedback": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "time": s.now().UTC().Format(time.RFC3339)})
}

func (s *Server) loadAssessment(w http.ResponseWriter, id string) (*assessment.Input, error) {
	in, err := s.store.GetAssessment(id)
	if err != nil {
		writeStoreError(w, "load_assessment", err)
		return nil, err
	}
	return in, nil
}

func writeStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, reportstore.ErrNotFound) {
		writeAPIError(w, apiError{Status: 404, Code: codeNotFound, Message: "not found"})
		return
	}
	writeInternal(w, op, err)
}
