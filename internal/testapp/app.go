// Package testapp serves a small stand-in for the OpenCraftShop web
// application. It renders the same element ids and classes as the real page
// and answers the generate and download API with canned content, so the
// browser scenario and the API check can run without the real service.
package testapp

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options toggles features of the page so tests can reproduce the ways the
// real application degrades.
type Options struct {
	// Title is rendered into the page h1 and <title>.
	Title string
	// GenerateDelay is how long the page stays busy after the API answers.
	GenerateDelay time.Duration
	// NeverFinish keeps the generate button busy forever.
	NeverFinish bool
	// HideViewer leaves #view-toggle hidden after generation.
	HideViewer bool
	// OmitCutDiagram drops the .cut-diagram element from the page.
	OmitCutDiagram bool
	// OmitDownloads drops the download anchors from the page.
	OmitDownloads bool
	// OmitTitle drops the h1.
	OmitTitle bool
	// StickyToggle makes the exploded toggle stop responding after one use.
	StickyToggle bool
	// FailGenerate makes /api/generate answer 500.
	FailGenerate bool
}

// DefaultDimensions are the form presets per furniture type, in inches.
var DefaultDimensions = map[string][3]int{
	"workbench":     {72, 24, 34},
	"storage_bench": {48, 18, 18},
	"bed_frame":     {80, 60, 14},
	"bookshelf":     {36, 12, 72},
}

// FurnitureTypes lists the select options in page order.
var FurnitureTypes = []struct{ Value, Label string }{
	{"workbench", "Workbench"},
	{"bookshelf", "Bookshelf"},
	{"bed_frame", "Bed Frame"},
	{"storage_bench", "Storage Bench"},
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Type   string  `json:"type"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// GenerateResponse is the body answered by POST /api/generate.
type GenerateResponse struct {
	Success             bool              `json:"success"`
	Files               map[string]string `json:"files"`
	CutListContent      string            `json:"cut_list_content"`
	ShoppingListContent string            `json:"shopping_list_content"`
}

// App is the fake application. Generated files are kept in memory.
type App struct {
	opts   Options
	logger *zap.Logger

	mu    sync.Mutex
	files map[string]string
}

// New creates an App with the given options.
func New(opts Options, logger *zap.Logger) *App {
	if opts.Title == "" {
		opts.Title = "OpenCraftShop"
	}
	return &App{
		opts:   opts,
		logger: logger.Named("testapp"),
		files:  make(map[string]string),
	}
}

// Handler returns the routes of the application.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(a.requestLogger)

	r.Get("/", a.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", a.handleGenerate)
		r.Get("/download/{file}", a.handleDownload)
	})
	return r
}

func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Debug("Request served.",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderIndex(w, a.opts); err != nil {
		a.logger.Error("Failed to render index.", zap.Error(err))
	}
}

func (a *App) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if a.opts.FailGenerate {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "generation failed"})
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if _, ok := DefaultDimensions[req.Type]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown furniture type"})
		return
	}

	cutList := CutList(req)
	shopping := fmt.Sprintf("Shopping list for %s\n- 2x4 x 8ft: 6\n- 4x4 x 8ft: 2\n", req.Type)
	files := map[string]string{
		"stl_assembled": req.Type + "_assembled.stl",
		"stl_exploded":  req.Type + "_exploded.stl",
		"cut_list":      req.Type + "_cut_list.txt",
		"shopping_list": req.Type + "_shopping_list.txt",
	}

	a.mu.Lock()
	a.files[files["stl_assembled"]] = "solid " + req.Type + "\nendsolid " + req.Type + "\n"
	a.files[files["stl_exploded"]] = "solid " + req.Type + "_exploded\nendsolid " + req.Type + "_exploded\n"
	a.files[files["cut_list"]] = cutList
	a.files[files["shopping_list"]] = shopping
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, GenerateResponse{
		Success:             true,
		Files:               files,
		CutListContent:      cutList,
		ShoppingListContent: shopping,
	})
}

func (a *App) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")

	a.mu.Lock()
	content, ok := a.files[name]
	a.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write([]byte(content))
}

// CutList renders a boxed cut diagram for req. The first line is the header
// so a sample of the leading lines always includes the frame.
func CutList(req GenerateRequest) string {
	rows := []string{
		fmt.Sprintf("Legs        %6.1f\"  x4", req.Height-1.5),
		fmt.Sprintf("Top rails   %6.1f\"  x2", req.Length),
		fmt.Sprintf("Side rails  %6.1f\"  x2", req.Width-3),
		fmt.Sprintf("Stretchers  %6.1f\"  x2", req.Length-3),
	}
	const width = 30
	var b strings.Builder
	b.WriteString("┌" + strings.Repeat("─", width) + "┐\n")
	b.WriteString(fmt.Sprintf("│%-*s│\n", width, " Cut list: "+req.Type))
	b.WriteString("├" + strings.Repeat("─", width) + "┤\n")
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("│ %-*s│\n", width-1, row))
	}
	b.WriteString("└" + strings.Repeat("─", width) + "┘\n")
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
