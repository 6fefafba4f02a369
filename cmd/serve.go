package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/postmetrics/internal/dashboard"
	"github.com/sells-group/postmetrics/internal/dataset"
	"github.com/sells-group/postmetrics/internal/viewcache"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the derived views as a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := applySourceFlags(cfg, "serve"); err != nil {
			return err
		}

		cache, err := viewcache.New(cfg.Cache.Size)
		if err != nil {
			return err
		}

		srv := newViewServer(cfg.Source.Path, loadOptions(cfg), cache, dashboard.Params{
			TopN:  cfg.Dashboard.TopN,
			Table: dashboard.TableQuery{PageSize: cfg.Dashboard.PageSize},
		})
		// A failed first load is served as 502 until a reload succeeds.
		if err := srv.reload(ctx); err != nil {
			zap.L().Error("initial load failed", zap.String("source", cfg.Source.Path), zap.Error(err))
		}

		port := resolvePort(servePort, cfg.Server.Port)
		shutdown := time.Duration(cfg.Server.ShutdownTimeoutSecs) * time.Second
		return startServer(ctx, buildMux(srv, cfg.Server.CORSOrigins), port, shutdown)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// loadFunc loads a dataset; tests swap it out.
type loadFunc func(ctx context.Context, src string, opts dataset.LoadOptions) (*dataset.Dataset, error)

// viewServer holds the current dataset and serves its views.
type viewServer struct {
	source   string
	opts     dataset.LoadOptions
	cache    *viewcache.Cache
	defaults dashboard.Params
	load     loadFunc

	mu      sync.RWMutex
	ds      *dataset.Dataset
	loadErr error
}

func newViewServer(source string, opts dataset.LoadOptions, cache *viewcache.Cache, defaults dashboard.Params) *viewServer {
	return &viewServer{
		source:   source,
		opts:     opts,
		cache:    cache,
		defaults: defaults,
		load:     dataset.Load,
	}
}

// reload replaces the dataset. On failure the previous dataset, if any,
// stays in place.
func (s *viewServer) reload(ctx context.Context) error {
	ds, err := s.load(ctx, s.source, s.opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if s.ds == nil {
			s.loadErr = err
		}
		return err
	}

	if s.ds != nil {
		s.cache.Invalidate(s.ds.ID)
	}
	s.ds, s.loadErr = ds, nil
	return nil
}

// current returns the loaded dataset or the error that prevented loading.
func (s *viewServer) current() (*dataset.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ds == nil {
		if s.loadErr != nil {
			return nil, s.loadErr
		}
		return nil, eris.New("no dataset loaded")
	}
	return s.ds, nil
}

// views derives (or recalls) the views for the request's params.
func (s *viewServer) views(r *http.Request) (*dashboard.Views, int, error) {
	p, err := paramsFromQuery(r, s.defaults)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	ds, err := s.current()
	if err != nil {
		return nil, http.StatusBadGateway, err
	}
	v, err := s.cache.Views(r.Context(), ds, p)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return v, http.StatusOK, nil
}

// paramsFromQuery reads top, sort, desc, page, page_size and f.<column>
// filters. Absent values keep the defaults.
func paramsFromQuery(r *http.Request, defaults dashboard.Params) (dashboard.Params, error) {
	q := r.URL.Query()
	p := defaults

	ints := []struct {
		name string
		dst  *int
	}{
		{"top", &p.TopN},
		{"page", &p.Table.Page},
		{"page_size", &p.Table.PageSize},
	}
	for _, f := range ints {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, eris.Errorf("invalid %s %q", f.name, raw)
		}
		*f.dst = n
	}

	p.Table.SortBy = q.Get("sort")
	if raw := q.Get("desc"); raw != "" {
		desc, err := strconv.ParseBool(raw)
		if err != nil {
			return p, eris.Errorf("invalid desc %q", raw)
		}
		p.Table.Desc = desc
	}

	p.Table.Filters = nil
	for key, vals := range q {
		col, ok := strings.CutPrefix(key, "f.")
		if !ok || col == "" || len(vals) == 0 {
			continue
		}
		if p.Table.Filters == nil {
			p.Table.Filters = make(map[string]string)
		}
		p.Table.Filters[col] = vals[0]
	}
	return p, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// viewHandler serves one part of the derived views.
func (s *viewServer) viewHandler(pick func(*dashboard.Views) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, status, err := s.views(r)
		if err != nil {
			zap.L().Warn("views unavailable", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
			writeError(w, status, err)
			return
		}
		writeJSON(w, http.StatusOK, pick(v))
	}
}

func (s *viewServer) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.reload(r.Context()); err != nil {
		zap.L().Error("reload failed", zap.String("source", s.source), zap.Error(err))
		writeError(w, http.StatusBadGateway, err)
		return
	}
	ds, _ := s.current()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "reloaded",
		"dataset_id": ds.ID,
		"rows":       ds.Len(),
	})
}

func (s *viewServer) handleCache(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

// requestLogger logs each request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// buildMux wires the API routes.
func buildMux(s *viewServer, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.viewHandler(func(v *dashboard.Views) any { return v.Stats }))
		r.Get("/series", s.viewHandler(func(v *dashboard.Views) any { return v.Series }))
		r.Get("/leaders", s.viewHandler(func(v *dashboard.Views) any { return v.Leaders }))
		r.Get("/table", s.viewHandler(func(v *dashboard.Views) any { return v.Table }))
		r.Get("/views", s.viewHandler(func(v *dashboard.Views) any { return v }))
		r.Get("/cache", s.handleCache)
		r.Post("/reload", s.handleReload)
	})

	return r
}

// resolvePort prefers the --port flag over the config value.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves handler until ctx is done, then shuts down gracefully.
func startServer(ctx context.Context, handler http.Handler, port int, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- eris.Wrap(err, "server listen")
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}
