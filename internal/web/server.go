package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tftdiet/tft/internal/app"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the tft web UI.
func NewServer(a *app.App, version, bind string, port int) (*http.Server, error) {
	handler, err := NewHandler(a, version)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// NewHandler builds the routed handler with security headers applied.
func NewHandler(a *app.App, version string) (http.Handler, error) {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	h := &Handlers{
		app:      a,
		renderer: NewRenderer(templateSub, version, a.Logger.With("component", "web")),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/meals", http.StatusFound)
	})
	mux.HandleFunc("GET /meals", h.HandleMeals)
	mux.HandleFunc("POST /meals", h.HandleCreate)
	mux.HandleFunc("GET /meals/{id}/edit", h.HandleEdit)
	mux.HandleFunc("POST /meals/{id}", h.HandleUpdate)
	mux.HandleFunc("POST /meals/{id}/delete", h.HandleDelete)
	mux.HandleFunc("DELETE /meals/{id}", h.HandleDelete)

	mux.HandleFunc("GET /forms/{form}", h.HandleForm)
	mux.HandleFunc("POST /forms/{form}/input", h.HandleInput)
	mux.HandleFunc("GET /forms/{form}/search", h.HandleSearch)
	mux.HandleFunc("POST /forms/{form}/search", h.HandleSearch)
	mux.HandleFunc("POST /forms/{form}/foods", h.HandleAddFood)
	mux.HandleFunc("POST /forms/{form}/foods/{food}/remove", h.HandleRemoveFood)
	mux.HandleFunc("POST /forms/{form}/reset", h.HandleReset)

	mux.HandleFunc("GET /chart.json", h.HandleChart)
	mux.HandleFunc("GET /profile", h.HandleProfile)
	mux.HandleFunc("POST /profile", h.HandleSaveProfile)
	mux.HandleFunc("GET /report", h.HandleReport)
	mux.HandleFunc("POST /notices/{id}/dismiss", h.HandleDismiss)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return securityHeaders(mux), nil
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and shuts it down gracefully on SIGINT/SIGTERM
// or when ctx is cancelled.
func Run(ctx context.Context, a *app.App, srv *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	a.Logger.Info("tft UI running", "url", "http://"+srv.Addr, "api", a.API.BaseURL())
	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		a.Logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

