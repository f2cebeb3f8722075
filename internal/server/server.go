// Package server exposes the report pipeline over HTTP.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/analysis"
	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/report"
)

// DefaultMaxUpload caps multipart uploads when Config.MaxUpload is zero.
const DefaultMaxUpload = 32 << 20

// Config wires the server.
type Config struct {
	Options        report.Options
	Summarizer     report.Summarizer
	MaxUpload      int64
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server handles report uploads. Uploads share no state.
type Server struct {
	cfg Config
	log *slog.Logger
}

// New returns a Server for cfg.
func New(cfg Config) *Server {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{cfg: cfg, log: log}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Post("/api/report", s.createReport)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr, "max_upload_bytes", s.cfg.MaxUpload)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chartJSON struct {
	Kind   analysis.ChartKind `json:"kind"`
	X      string             `json:"x"`
	Y      string             `json:"y"`
	Title  string             `json:"title"`
	Points []analysis.Point   `json:"points"`
	PNG    string             `json:"png_base64"`
}

type reportJSON struct {
	*report.Report
	Charts []chartJSON `json:"charts"`
}

func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	if err := r.ParseMultipartForm(s.cfg.MaxUpload); err != nil {
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds limit")
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	opt := s.cfg.Options
	if v := strings.TrimSpace(r.FormValue("parse_dates")); v != "" {
		opt.Load.ParseDates = splitList(v)
	}
	if v := r.FormValue("no_ai"); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "no_ai must be a boolean")
			return
		}
		opt.SkipSummary = opt.SkipSummary || skip
	}

	gen := report.NewGenerator(s.cfg.Summarizer, opt)
	rep, err := gen.Run(r.Context(), header.Filename, file)
	switch {
	case errors.Is(err, analysis.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "The uploaded file is empty. Please upload a valid CSV with data.")
		return
	case errors.Is(err, analysis.ErrUnreadableInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Error("report failed", "file", header.Filename, "err", err)
		writeError(w, http.StatusInternalServerError, "report failed")
		return
	}

	out := reportJSON{Report: rep, Charts: make([]chartJSON, 0, len(rep.Charts))}
	for _, ch := range rep.Charts {
		out.Charts = append(out.Charts, chartJSON{
			Kind:   ch.Spec.Kind,
			X:      ch.Spec.X,
			Y:      ch.Spec.Y,
			Title:  ch.Title,
			Points: ch.Points,
			PNG:    base64.StdEncoding.EncodeToString(ch.PNG),
		})
	}
	attrs := []any{"id", rep.ID, "file", header.Filename, "rows", rep.Rows, "charts", len(rep.Charts), "state", rep.State}
	if rep.SummaryError != nil {
		s.log.Warn("summary failed", append(attrs, "err", rep.SummaryError.Err)...)
	} else {
		s.log.Info("report generated", attrs...)
	}
	writeJSON(w, http.StatusOK, out)
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
