// Package web exposes the import and search flows over HTTP.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/astrocat/atelscan/pkg/atelscan"
	"github.com/astrocat/atelscan/pkg/atelscan/internalerr"
	"github.com/astrocat/atelscan/pkg/atelscan/keywords"
	"github.com/astrocat/atelscan/pkg/atelscan/report"
	"github.com/astrocat/atelscan/pkg/atelscan/search"
)

// dateLayout is the wire format for search date bounds.
const dateLayout = "2006-01-02"

// Server handles the HTTP API.
type Server struct {
	engine *atelscan.Engine
	log    *slog.Logger
}

// NewServer creates a Server around the engine.
func NewServer(engine *atelscan.Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{engine: engine, log: log}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/metadata", s.handleMetadata)
	r.Post("/import", s.handleImport)
	r.Post("/search", s.handleSearch)

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := s.engine.Metadata(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := struct {
		LastUpdated *time.Time `json:"last_updated,omitempty"`
		ReportCount int        `json:"report_count"`
	}{ReportCount: meta.ReportCount}
	if !meta.LastUpdated.IsZero() {
		resp.LastUpdated = &meta.LastUpdated
	}
	writeJSON(w, http.StatusOK, resp)
}

type importRequest struct {
	Mode   string `json:"mode"`
	Report int    `json:"report"`
}

type importResponse struct {
	Flag     int    `json:"flag"`
	Batch    string `json:"batch,omitempty"`
	Imported int    `json:"imported,omitempty"`
	Skipped  int    `json:"skipped,omitempty"`
	Failed   int    `json:"failed,omitempty"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	switch strings.ToLower(req.Mode) {
	case "manual":
		if req.Report <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "report must be a positive integer"})
			return
		}
		if err := s.engine.ImportReport(r.Context(), req.Report); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, importResponse{Flag: 1, Imported: 1})
	case "auto":
		sum, err := s.engine.ImportAll(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, importResponse{
			Flag:     1,
			Batch:    sum.Batch,
			Imported: sum.Imported,
			Skipped:  sum.Skipped,
			Failed:   sum.Failed,
		})
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "mode must be manual or auto"})
	}
}

type searchRequest struct {
	Term        string   `json:"term"`
	Keywords    []string `json:"keywords"`
	KeywordMode string   `json:"keyword_mode"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
}

type searchResponse struct {
	Flag              int          `json:"flag"`
	Reports           []reportJSON `json:"reports"`
	SuggestedKeywords []string     `json:"suggested_keywords,omitempty"`
}

type reportJSON struct {
	ID                int         `json:"id"`
	Title             string      `json:"title"`
	Authors           string      `json:"authors"`
	Body              string      `json:"body"`
	SubmissionTime    time.Time   `json:"submission_time"`
	ReferencedReports []int       `json:"referenced_reports"`
	ReferencedBy      []int       `json:"referenced_by"`
	ObservationDates  []time.Time `json:"observation_dates"`
	Keywords          []string    `json:"keywords"`
	Objects           []string    `json:"objects"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	filters, err := buildFilters(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	reports, err := s.engine.Search(r.Context(), filters)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := searchResponse{Flag: 1, Reports: make([]reportJSON, 0, len(reports))}
	for _, rep := range reports {
		resp.Reports = append(resp.Reports, toReportJSON(rep))
	}
	if req.Term != "" {
		// Free-text terms often contain vocabulary keywords; surface
		// them so the client can offer a refined keyword search.
		resp.SuggestedKeywords = keywords.ExtractRaw(req.Term)
	}
	writeJSON(w, http.StatusOK, resp)
}

func buildFilters(req searchRequest) (search.Filters, error) {
	mode, err := search.ParseKeywordMode(req.KeywordMode)
	if err != nil {
		return search.Filters{}, err
	}

	f := search.Filters{
		Term:        strings.TrimSpace(req.Term),
		Keywords:    req.Keywords,
		KeywordMode: mode,
	}
	if req.StartDate != "" {
		ts, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return search.Filters{}, errors.New("start_date must be YYYY-MM-DD")
		}
		f.StartDate = ts
	}
	if req.EndDate != "" {
		ts, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return search.Filters{}, errors.New("end_date must be YYYY-MM-DD")
		}
		// Inclusive end of day.
		f.EndDate = ts.Add(24*time.Hour - time.Second)
	}
	if err := f.Validate(); err != nil {
		return search.Filters{}, err
	}
	return f, nil
}

func toReportJSON(r report.Report) reportJSON {
	return reportJSON{
		ID:                r.ID,
		Title:             r.Title,
		Authors:           r.Authors,
		Body:              r.Body,
		SubmissionTime:    r.SubmissionTime,
		ReferencedReports: emptyInts(r.ReferencedReports),
		ReferencedBy:      emptyInts(r.ReferencedBy),
		ObservationDates:  emptyTimes(r.ObservationDates),
		Keywords:          emptyStrings(r.Keywords),
		Objects:           emptyStrings(r.Objects),
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, internalerr.ErrReportExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, internalerr.ErrReportNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case internalerr.IsMissingElement(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, internalerr.ErrNetwork), errors.Is(err, internalerr.ErrDownloadFail):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	case errors.Is(err, internalerr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.log.Error("request failed", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func emptyInts(in []int) []int {
	if in == nil {
		return []int{}
	}
	return in
}

func emptyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func emptyTimes(in []time.Time) []time.Time {
	if in == nil {
		return []time.Time{}
	}
	return in
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
