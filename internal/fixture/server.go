// Package fixture serves a small demo todo list over HTTP in the
// jsonplaceholder format, with knobs for injecting failures and latency.
package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// Query parameters understood by GET /todos.
const (
	ParamLimit = "_limit"
	ParamFail  = "fail"
	ParamDelay = "delay"
)

// MaxDelay caps the injected latency.
const MaxDelay = 10 * time.Second

// Handler returns the fixture routes.
func Handler(items []types.Item, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if items == nil {
		items = DemoItems()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/todos", todosHandler(items))
	r.Get("/todos/{id}", todoHandler(items))
	return r
}

func todosHandler(items []types.Item) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if d := q.Get(ParamDelay); d != "" {
			delay, err := time.ParseDuration(d)
			if err != nil || delay < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad delay"})
				return
			}
			if delay > MaxDelay {
				delay = MaxDelay
			}
			if !sleep(r.Context(), delay) {
				return
			}
		}

		if f := q.Get(ParamFail); f != "" {
			code, err := strconv.Atoi(f)
			if err != nil || code < 400 || code > 599 {
				code = http.StatusInternalServerError
			}
			writeJSON(w, code, map[string]string{"error": http.StatusText(code)})
			return
		}

		out := items
		if l := q.Get(ParamLimit); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad limit"})
				return
			}
			if n < len(out) {
				out = out[:n]
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func todoHandler(items []types.Item) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad id"})
			return
		}
		for _, it := range items {
			if it.ID == id {
				writeJSON(w, http.StatusOK, it)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.RequestURI()),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// DemoItems returns the built-in demo list.
func DemoItems() []types.Item {
	titles := []struct {
		title, category string
		done            bool
	}{
		{"Buy milk", "errands", false},
		{"Write weekly report", "work", true},
		{"Call the plumber", "home", false},
		{"Review pull requests", "work", false},
		{"Pick up dry cleaning", "errands", true},
		{"Water the plants", "home", true},
		{"Plan sprint demo", "work", false},
		{"Renew library card", "errands", false},
		{"Fix the squeaky door", "home", false},
		{"Update team wiki", "work", true},
		{"Return parcel", "errands", false},
		{"Clean the garage", "home", false},
		{"Book dentist appointment", "errands", false},
		{"Refactor config loader", "work", false},
		{"Defrost the freezer", "home", true},
		{"Send invoice", "work", false},
		{"Buy birthday card", "errands", false},
		{"Replace smoke alarm battery", "home", false},
		{"Prepare onboarding notes", "work", false},
		{"Recycle old batteries", "errands", true},
	}
	out := make([]types.Item, len(titles))
	for i, t := range titles {
		out[i] = types.Item{ID: int64(i + 1), Title: t.title, Completed: t.done, Category: t.category}
	}
	return out
}

// Server runs the fixture handler on an address.
type Server struct {
	srv *http.Server
	log *zap.Logger
}

// NewServer builds a server for addr.
func NewServer(addr string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           Handler(nil, log),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// ShutdownTimeout bounds graceful shutdown once Run's context ends.
const ShutdownTimeout = 5 * time.Second

// Run serves until ctx is cancelled, then shuts down gracefully. A listen
// failure is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("fixture server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
