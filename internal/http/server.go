package http

import (
	"context"
	"net/http"
	"time"

	"salao/internal/core"
	"salao/internal/log"
	"salao/internal/store"
)

// ReportService builds fortnight reports and ledgers.
type ReportService interface {
	Fortnight(ctx context.Context, half, year, month int) (core.Report, error)
	Rebuild(ctx context.Context, half, year, month int) (core.Report, error)
	Ledger(ctx context.Context, half, year, month int) (text, filename string, err error)
	Invalidate(year, month int)
	InvalidateAll()
}

// Selector tracks the fortnight currently on display.
type Selector interface {
	Select(ctx context.Context, half, year, month int) (core.Report, error)
	Current() (core.Report, bool)
}

// LedgerExporter writes a ledger file synchronously.
type LedgerExporter interface {
	Write(r core.Report) (string, error)
}

// ExportPublisher enqueues an export for the worker.
type ExportPublisher interface {
	PublishExportRequest(ctx context.Context, half, year, month int) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the server. Publisher and Ready are optional.
type Deps struct {
	Reports      ReportService
	Selection    Selector
	Exporter     LedgerExporter
	Publisher    ExportPublisher
	Appointments store.Store
	Ready        Pinger
	Logger       *log.Logger
	// RateLimit is the number of POST requests per minute per client IP.
	RateLimit int
}

type Server struct {
	http.Server
	reports      ReportService
	selection    Selector
	exporter     LedgerExporter
	publisher    ExportPublisher
	appointments store.Store
	ready        Pinger
	logger       *log.Logger
	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	now          func() time.Time
}

// NewServer configures routes and middleware.
func NewServer(addr string, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       7 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		reports:      d.Reports,
		selection:    d.Selection,
		exporter:     d.Exporter,
		publisher:    d.Publisher,
		appointments: d.Appointments,
		ready:        d.Ready,
		logger:       logger.WithComponent(log.ComponentHTTP),
		rateLimiter:  newRateLimiter(d.RateLimit),
		metrics:      &securityMetrics{},
		now:          time.Now,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /reports/fortnight", s.withSecurityHeaders(s.handleFortnight))
	mux.HandleFunc("GET /reports/fortnight/ledger", s.withSecurityHeaders(s.handleLedger))
	mux.HandleFunc("GET /reports/fortnight/ledger.xlsx", s.withSecurityHeaders(s.handleLedgerXLSX))
	mux.HandleFunc("POST /reports/fortnight/export", s.withSecurityHeaders(s.handleExport))
	mux.HandleFunc("GET /reports/selection", s.withSecurityHeaders(s.handleCurrentSelection))
	mux.HandleFunc("POST /reports/selection", s.withSecurityHeaders(s.handleSelect))

	mux.HandleFunc("GET /appointments/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("POST /appointments", s.withSecurityHeaders(s.handleCreateAppointment))
	mux.HandleFunc("POST /appointments/{id}/status", s.withSecurityHeaders(s.handleUpdateStatus))

	return s
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	s.logger.Info("HTTP server stopping", "security", s.metrics.snapshot(), log.FieldOperation, log.OpShutdown)
	return s.Server.Shutdown(ctx)
}

// withSecurityHeaders adds request IDs, rate limiting of POST requests,
// security headers and request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := log.WithRequestID(context.WithValue(r.Context(), log.LoggerContextKey, s.logger), requestID)
		r = r.WithContext(ctx)
		reqLog := log.FromContext(ctx)

		if detectSuspiciousRequest(r, s.metrics) {
			reqLog.WithComponent(log.ComponentSecurity).Warn("Suspicious request",
				log.NewFields().
					WithClientIP(clientIP).
					WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
					ToSlice()...)
		}

		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			rw.Header().Set("Retry-After", "60")
			ErrorResponse(http.StatusTooManyRequests, "Muitas requisições. Tente novamente em instantes.").Write(rw)
		} else {
			next(rw, r)
		}

		log.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady pings the store when one is configured.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			s.logger.Warn("Readiness check failed", log.FieldError, err)
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
