// dashboard-server is the HTTP API backend for the conversation
// dashboard.
//
// Endpoints:
//   - POST /login    - Exchange credentials for a bearer token
//   - GET  /search   - Multi-term conversation search (authenticated)
//   - GET  /metrics  - Corpus aggregates (authenticated)
//   - GET  /health   - Health check
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/1acre-in/message-analytics/pkg/appconfig"
	"github.com/1acre-in/message-analytics/pkg/auth"
	"github.com/1acre-in/message-analytics/pkg/corpus"
	"github.com/1acre-in/message-analytics/pkg/metrics"
	"github.com/1acre-in/message-analytics/pkg/search"
	"github.com/1acre-in/message-analytics/pkg/util"
)

var (
	addr    = flag.String("addr", "", "HTTP listen address (defaults to server.addr from config)")
	dbPath  = flag.String("db", "", "Path to SQLite database (defaults to database.sqlite from config)")
	cfgPath = flag.String("config", "", "Path to analytics.yaml (auto-detected if not specified)")
	debug   = flag.Bool("debug", false, "Enable debug logging")
	addUser = flag.String("add-user", "", "Register a dashboard account as user:password, then exit")
)

const dateLayout = "2006-01-02"

func main() {
	flag.Parse()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Info().Str("config_hash", cfg.Hash()[:12]).Msg("Loaded configuration")

	sqlitePath := *dbPath
	if sqlitePath == "" {
		sqlitePath = cfg.Database.SQLite
	}
	if sqlitePath == "" {
		log.Fatal().Msg("SQLite database path is empty (set -db or database.sqlite in analytics.yaml)")
	}

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = cfg.Server.Addr
	}

	users := auth.NewStore(cfg.Auth.UsersFile)
	if *addUser != "" {
		username, password, ok := strings.Cut(*addUser, ":")
		if !ok {
			log.Fatal().Msg("-add-user expects user:password")
		}
		if err := users.Register(username, password); err != nil {
			log.Fatal().Err(err).Str("user", username).Msg("Failed to register user")
		}
		log.Info().Str("user", username).Msg("Registered user")
		return
	}

	loader := corpus.NewLoader(sqlitePath, log.Logger)
	engine := search.NewEngine(log.Logger, cfg.Search.MaxResults)
	sessions := auth.NewSessions(time.Duration(cfg.Auth.SessionTTLMinutes) * time.Minute)
	activeWindow := time.Duration(cfg.Metrics.ActiveWindowDays) * 24 * time.Hour

	// Warm the cache so the first request doesn't pay the load. A missing
	// database is not fatal here: the import tool may not have run yet.
	if _, err := loader.Load(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Corpus not available yet")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", loginHandler(users, sessions))
	mux.HandleFunc("GET /search", requireSession(sessions, searchHandler(loader, engine, cfg)))
	mux.HandleFunc("GET /metrics", requireSession(sessions, metricsHandler(loader, activeWindow)))
	mux.HandleFunc("GET /health", healthHandler(loader))

	server := &http.Server{
		Addr:         listenAddr,
		Handler:      loggingMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", listenAddr).Msg("Starting dashboard server")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}

	log.Info().Msg("Server stopped")
}

func loadConfig() (*appconfig.Config, error) {
	if *cfgPath != "" {
		return appconfig.Load(*cfgPath)
	}
	return appconfig.LoadOrDefault("."), nil
}

// loginHandler handles POST /login requests
func loginHandler(users *auth.Store, sessions *auth.Sessions) http.HandlerFunc {
	type request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	type response struct {
		Token string `json:"token"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		ok, err := users.Authenticate(req.Username, req.Password)
		if err != nil {
			log.Error().Err(err).Msg("Authentication failed")
			writeError(w, http.StatusInternalServerError, "authentication failed")
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		writeJSON(w, http.StatusOK, response{Token: sessions.Issue(req.Username)})
	}
}

// requireSession rejects requests without a valid bearer token
func requireSession(sessions *auth.Sessions, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if _, ok := sessions.Validate(token); !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		next(w, r)
	}
}

// searchHandler handles GET /search requests
func searchHandler(loader *corpus.Loader, engine *search.Engine, cfg *appconfig.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := loader.Load(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Corpus load failed")
			writeError(w, http.StatusServiceUnavailable, "conversation data is not available")
			return
		}

		params := r.URL.Query()
		raw := search.SanitizeQuery(params.Get("q"))

		query := search.Query{
			Terms:       search.ParseTerms(raw),
			MinMessages: parseIntDefault(params.Get("min_messages"), cfg.Search.MinMessages),
			SortBy:      search.SortBy(params.Get("sort")),
			MaxResults:  parseIntDefault(params.Get("limit"), 0),
		}

		if from, to := params.Get("from"), params.Get("to"); from != "" || to != "" {
			dr := &search.DateRange{}
			if from != "" {
				ts, err := time.Parse(dateLayout, from)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
					return
				}
				dr.Start = ts
			}
			if to != "" {
				ts, err := time.Parse(dateLayout, to)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
					return
				}
				dr.End = ts
			}
			query.DateRange = dr
		}

		if err := search.ValidateQuery(query); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		resp, err := engine.Search(r.Context(), c, query)
		if err != nil {
			log.Error().Err(err).Str("query", util.Truncate(raw, 128)).Msg("Search failed")
			writeError(w, http.StatusInternalServerError, "search failed")
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// metricsHandler handles GET /metrics requests
func metricsHandler(loader *corpus.Loader, activeWindow time.Duration) http.HandlerFunc {
	type response struct {
		Overview        metrics.Overview   `json:"overview"`
		DailyVolume     []metrics.DayCount `json:"daily_volume"`
		ActivityGrid    [7][24]float64     `json:"activity_grid"`
		DurationBuckets map[string]int     `json:"duration_buckets"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		c, err := loader.Load(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Corpus load failed")
			writeError(w, http.StatusServiceUnavailable, "conversation data is not available")
			return
		}

		writeJSON(w, http.StatusOK, response{
			Overview:        metrics.OverviewAt(c, time.Now(), activeWindow),
			DailyVolume:     metrics.DailyVolume(c),
			ActivityGrid:    metrics.ActivityGrid(c),
			DurationBuckets: metrics.DurationBuckets(c),
		})
	}
}

// healthHandler handles GET /health requests
func healthHandler(loader *corpus.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := loader.Load(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":        "ok",
			"conversations": c.Len(),
		})
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return def
}
