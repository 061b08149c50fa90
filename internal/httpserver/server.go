// internal/httpserver/server.go
//
// HTTP server wiring for the motmystere backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     access log).
//   - Public endpoints: "/", "/health", local image files.
//   - Educator endpoints (content bearer required): /poems, /images.
//   - Play endpoints (optional auth, guests allowed): /play/poems, /rounds/*.
//   - Stats endpoints: /stats/me, /poems/{id}/leaderboard.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Guests are identified by a long-lived device cookie.
//   - Errors are JSON: {"error": code, "message": ..., ...detail}.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/motmystere/internal/config"
	"github.com/robalobadob/motmystere/internal/content"
	"github.com/robalobadob/motmystere/internal/grammar"
	"github.com/robalobadob/motmystere/internal/identity"
	"github.com/robalobadob/motmystere/internal/ids"
	"github.com/robalobadob/motmystere/internal/progress"
	"github.com/robalobadob/motmystere/internal/store"
)

// PoemStore is the content store the server talks to.
type PoemStore interface {
	List(ctx context.Context, ownerID string) ([]*grammar.Poem, error)
	Get(ctx context.Context, id string) (*grammar.Poem, error)
	Create(ctx context.Context, p *grammar.Poem) error
	Update(ctx context.Context, p *grammar.Poem) error
	Delete(ctx context.Context, id string) error
}

// Deps are the collaborators of a Server.
type Deps struct {
	Config   *config.Config
	Rounds   store.Store
	Poems    PoemStore
	Images   content.ImageStore // optional; /images answers 503 without it
	Progress *progress.Service
	Tokens   *identity.Issuer
	IDs      ids.Generator // device ids; defaults to UUID
	Clock    func() time.Time
}

// Server bundles router and collaborators.
type Server struct {
	r     *chi.Mux
	cfg   *config.Config
	deps  Deps
	model grammar.Model
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.Config == nil {
		d.Config = config.Load()
	}
	if d.IDs == nil {
		d.IDs = ids.UUID{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Tokens == nil {
		d.Tokens = identity.NewIssuer(d.Config.JWTSecret, d.Config.TokenTTL)
	}
	s := &Server{
		r:     chi.NewRouter(),
		cfg:   d.Config,
		deps:  d,
		model: grammar.NewModel(d.Config.Game.NeutralColor, d.Config.Game.UnknownLetter),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)                       // one zerolog line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(s.cors)                          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "motmystere",
			"endpoints": []string{"/health", "/poems", "/play/poems", "/rounds", "/stats/me"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "lexicon": grammar.Stats()})
	})

	s.mountPoemRoutes()
	s.mountRoundRoutes()
	s.mountStatsRoutes()
	s.mountLocalImages()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", map[string]any{"path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// mountLocalImages serves uploaded files when images live on local disk.
func (s *Server) mountLocalImages() {
	base := strings.TrimRight(s.cfg.ImageBaseURL, "/")
	if s.cfg.ImageStore != "local" || !strings.HasPrefix(base, "/") {
		return
	}
	files := http.StripPrefix(base, http.FileServer(http.Dir(s.cfg.ImageDir)))
	s.r.Get(base+"/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Del("Content-Type")
		files.ServeHTTP(w, r)
	})
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one structured line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("http")
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": code, ...detail}.
func writeError(w http.ResponseWriter, status int, code string, detail map[string]any) {
	body := map[string]any{"error": code}
	for k, v := range detail {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", map[string]any{"message": err.Error()})
		return false
	}
	return true
}

// storageFailure maps content/progress failures to 404 or 500.
func storageFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, content.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	detail := map[string]any{"message": err.Error()}
	var se *content.StorageError
	if errors.As(err, &se) {
		detail["op"] = se.Op
	}
	log.Error().Err(err).Msg("storage")
	writeError(w, http.StatusInternalServerError, "storage_failed", detail)
}
