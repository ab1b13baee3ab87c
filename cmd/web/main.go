package main

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"gccontent/internal/analyzer"
	"gccontent/internal/config"
	"gccontent/internal/history"
	"gccontent/internal/logging"
	"gccontent/internal/report"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

//go:embed static
var embeddedStatic embed.FS

const emptyInputWarning = "Please enter a sequence first."

// Page is the data rendered by base.html.
type Page struct {
	Input          string
	Warning        string
	Error          string
	Result         *analyzer.Result
	HistoryEnabled bool
	Recent         []history.Entry
}

var templates *template.Template

var templateFuncs = template.FuncMap{
	"percent": report.Percent,
}

// loadTemplates parses every .html file under fsys; templates are named
// after their file name.
func loadTemplates(fsys fs.FS) error {
	t := template.New("").Funcs(templateFuncs)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".html") {
			return nil
		}
		if _, err := t.ParseFS(fsys, p); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	templates = t
	return nil
}

// statusResponseWriter captures status and bytes written for logging
type statusResponseWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// loggingMiddleware logs each request with method, path, status, size and duration
func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w}
		next.ServeHTTP(srw, r)
		if srw.status == 0 {
			srw.status = http.StatusOK
		}
		logger.Info("request",
			"remote", r.RemoteAddr,
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", srw.status,
			"bytes", srw.written,
			"duration", time.Since(start),
		)
	})
}

func renderPage(w http.ResponseWriter, status int, page Page) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "base.html", page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func recentEntries(r *http.Request, logger *log.Logger, store history.Store, limit int) []history.Entry {
	if store == nil {
		return nil
	}
	entries, err := store.Recent(r.Context(), limit)
	if err != nil {
		logger.Warn("failed to read history", "err", err)
	}
	return entries
}

func record(r *http.Request, logger *log.Logger, store history.Store, source string, res analyzer.Result, err error) {
	if store == nil {
		return
	}
	if _, aerr := store.Append(r.Context(), history.FromResult(source, res, err)); aerr != nil {
		logger.Warn("failed to record analysis", "err", aerr)
	}
}

func indexHandler(logger *log.Logger, store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, http.StatusOK, Page{
			HistoryEnabled: store != nil,
			Recent:         recentEntries(r, logger, store, 10),
		})
	}
}

// formInput returns the text to analyze and where it came from. An uploaded
// non-empty file takes precedence over the text area.
func formInput(w http.ResponseWriter, r *http.Request, maxBytes int64) (text, source string, status int, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return "", "", http.StatusRequestEntityTooLarge, fmt.Errorf("input larger than %d bytes", maxBytes)
		case errors.Is(err, http.ErrNotMultipart):
			if err := r.ParseForm(); err != nil {
				return "", "", http.StatusBadRequest, err
			}
		default:
			return "", "", http.StatusBadRequest, err
		}
	}

	if f, _, ferr := r.FormFile("file"); ferr == nil {
		defer f.Close()
		uploaded, rerr := analyzer.ReadText(f)
		if rerr != nil {
			return "", "", http.StatusBadRequest, rerr
		}
		if uploaded != "" {
			return uploaded, "upload", http.StatusOK, nil
		}
	}
	return r.FormValue("sequence"), "paste", http.StatusOK, nil
}

func analyzeHandler(logger *log.Logger, store history.Store, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := Page{HistoryEnabled: store != nil}
		text, source, status, err := formInput(w, r, maxBytes)
		if err != nil {
			logger.Error("failed to read submitted input", "err", err)
			page.Error = fmt.Sprintf("Error processing sequence: %v", err)
			page.Recent = recentEntries(r, logger, store, 10)
			renderPage(w, status, page)
			return
		}
		if source == "paste" {
			page.Input = text
		}
		if text == "" {
			page.Warning = emptyInputWarning
			page.Recent = recentEntries(r, logger, store, 10)
			renderPage(w, http.StatusOK, page)
			return
		}

		status = http.StatusOK
		sink := analyzer.SinkFuncs{
			OnResult: func(res analyzer.Result) error {
				logger.Info("sequence analyzed", "source", source, "length", res.Length, "gc_percent", res.GCPercent)
				record(r, logger, store, source, res, nil)
				page.Result = &res
				return nil
			},
			OnInvalid: func(verr *analyzer.ValidationError) error {
				logger.Info("sequence rejected", "source", source, "kind", verr.Kind, "offset", verr.Offset)
				record(r, logger, store, source, analyzer.Result{}, verr)
				page.Error = verr.Error()
				status = http.StatusUnprocessableEntity
				return nil
			},
		}
		if err := analyzer.Process(strings.NewReader(text), sink); err != nil {
			logger.Error("analysis failed", "err", err)
			page.Error = fmt.Sprintf("Error processing sequence: %v", err)
			status = http.StatusBadRequest
		}
		page.Recent = recentEntries(r, logger, store, 10)
		renderPage(w, status, page)
	}
}

// reportHandler re-analyzes the submitted sequence and returns it as a
// downloadable report, so the export always matches the value shown.
func reportHandler(logger *log.Logger, fastaWidth int, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "failed to read form", http.StatusBadRequest)
			return
		}
		res, err := analyzer.Analyze(r.FormValue("sequence"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		switch r.FormValue("format") {
		case "fasta":
			var buf bytes.Buffer
			if err := report.WriteFASTA(&buf, "gc_sequence", res, fastaWidth); err != nil {
				logger.Error("fasta export failed", "err", err)
				http.Error(w, "failed to build FASTA", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/x-fasta; charset=utf-8")
			w.Header().Set("Content-Disposition", `attachment; filename="gc_sequence.fasta"`)
			_, _ = buf.WriteTo(w)
		default:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Content-Disposition", `attachment; filename="gc_report.txt"`)
			_, _ = w.Write([]byte(report.Download(res)))
		}
		logger.Debug("report downloaded", "format", r.FormValue("format"), "length", res.Length)
	}
}

type apiRequest struct {
	Sequence string `json:"sequence"`
}

type apiResult struct {
	analyzer.Result
	Summary string `json:"summary"`
}

type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// apiAnalyzeHandler accepts a JSON {"sequence": ...} body or raw text.
func apiAnalyzeHandler(logger *log.Logger, store history.Store, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, maxBytes)
		var text string
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "application/json" {
			var req apiRequest
			if err := json.NewDecoder(body).Decode(&req); err != nil {
				writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON body", Kind: "input"})
				return
			}
			text = req.Sequence
		} else {
			var err error
			if text, err = analyzer.ReadText(body); err != nil {
				logger.Error("failed to read api input", "err", err)
				writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error(), Kind: "input"})
				return
			}
		}

		res, err := analyzer.Analyze(text)
		record(r, logger, store, "api", res, err)
		if verr, ok := analyzer.AsValidation(err); ok {
			writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: verr.Error(), Kind: verr.Kind.String()})
			return
		}
		logger.Info("sequence analyzed", "source", "api", "length", res.Length, "gc_percent", res.GCPercent)
		writeJSON(w, http.StatusOK, apiResult{Result: res, Summary: report.Summary(res)})
	}
}

func apiHistoryHandler(logger *log.Logger, store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "history disabled", http.StatusNotFound)
			return
		}
		limit := 20
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		entries, err := store.Recent(r.Context(), limit)
		if err != nil {
			logger.Error("failed to read history", "err", err)
			http.Error(w, "failed to read history", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []history.Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

type server struct {
	logger     *log.Logger
	store      history.Store
	maxUpload  int64
	fastaWidth int
	static     fs.FS
}

func (s server) routes() http.Handler {
	mux := http.NewServeMux()
	if s.static != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(s.static))))
	}
	mux.HandleFunc("GET /{$}", indexHandler(s.logger, s.store))
	mux.HandleFunc("POST /analyze", analyzeHandler(s.logger, s.store, s.maxUpload))
	mux.HandleFunc("POST /report", reportHandler(s.logger, s.fastaWidth, s.maxUpload))
	mux.HandleFunc("POST /api/analyze", apiAnalyzeHandler(s.logger, s.store, s.maxUpload))
	mux.HandleFunc("GET /api/history", apiHistoryHandler(s.logger, s.store))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return loggingMiddleware(s.logger, mux)
}

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	addr := flag.String("addr", "", "HTTP address to serve (overrides config)")
	templatesDir := flag.String("templates", "", "directory of HTML templates overriding the embedded ones")
	logFile := flag.String("log", "", "path to append logs to (overrides config)")
	verbose := flag.Bool("verbose", false, "enable verbose (debug) logging")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	// flags override config when provided
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *templatesDir != "" {
		cfg.TemplatesDir = *templatesDir
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	logger, closer := logging.New(logging.Options{Prefix: "gccontent-web", Level: cfg.LogLevel, File: cfg.LogFile, Verbose: *verbose})
	defer closer.Close()

	var tfs fs.FS
	if cfg.TemplatesDir != "" {
		tfs = os.DirFS(cfg.TemplatesDir)
	} else {
		tfs, _ = fs.Sub(embeddedTemplates, "templates")
	}
	if err := loadTemplates(tfs); err != nil {
		logger.Fatal("failed to load templates", "err", err)
	}

	store, err := history.Open(cfg.HistoryStore, cfg.HistoryPath)
	if err != nil {
		logger.Fatal("failed to open history store", "kind", cfg.HistoryStore, "path", cfg.HistoryPath, "err", err)
	}
	if store != nil {
		defer store.Close()
	}

	static, _ := fs.Sub(embeddedStatic, "static")
	s := server{
		logger:     logger,
		store:      store,
		maxUpload:  cfg.MaxUploadBytes,
		fastaWidth: cfg.FastaWidth,
		static:     static,
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: s.routes(), ReadTimeout: 15 * time.Second, WriteTimeout: 15 * time.Second}
	logger.Info("serving analyzer UI", "addr", cfg.Addr, "history_store", cfg.HistoryStore, "max_upload_bytes", cfg.MaxUploadBytes)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", "err", err)
	}
}
