package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Samrat740/sleep-apnea-screening/internal/domain"
	"github.com/Samrat740/sleep-apnea-screening/internal/metrics"
	"github.com/Samrat740/sleep-apnea-screening/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const uploadFieldName = "file"

type ScreeningService interface {
	AnalyzeECG(ctx context.Context, sessionID uuid.UUID, fileName string, content []byte) (*domain.EcgAnalysis, error)
	AssessRisk(ctx context.Context, sessionID uuid.UUID, profile domain.HealthProfile) (*domain.RiskResult, error)
	SessionState(ctx context.Context, sessionID uuid.UUID) (*domain.SessionState, error)
	WakeServer(ctx context.Context, sessionID uuid.UUID) (*domain.SessionState, error)
	UpstreamState() domain.ServerState
	CheckSessionStore(ctx context.Context) error
}

type HTTPServer struct {
	server         *http.Server
	service        ScreeningService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewHTTPServer(addr string, service ScreeningService, maxUploadBytes int64, corsOrigins []string, logger *zap.Logger) *HTTPServer {
	router := mux.NewRouter()

	s := &HTTPServer{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}

	// Middleware регистрации
	router.Use(s.metricsMiddleware)
	router.Use(s.loggingMiddleware)

	// Маршруты
	router.HandleFunc("/health", s.healthCheck).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(sessionMiddleware)
	api.HandleFunc("/session", s.getSession).Methods("GET")
	api.HandleFunc("/server/wake", s.wakeServer).Methods("POST")
	api.HandleFunc("/risk", s.assessRisk).Methods("POST")
	api.HandleFunc("/ecg", s.analyzeECG).Methods("POST")

	// Метрики Prometheus
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins(corsOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowCredentials(),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(logger)),
		handlers.PrintRecoveryStack(true),
	)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           recovery(cors(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *HTTPServer) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// responseWriter для отслеживания статус кода и размера
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// middleware для сбора метрик HTTP запросов с использованием шаблона пути
func (s *HTTPServer) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		method := r.Method
		status := strconv.Itoa(rw.statusCode)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		metrics.HTTPRequests.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
		metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(rw.size))
	})
}

// middleware для логирования HTTP запросов
func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.String("ip", r.RemoteAddr),
			zap.String("user_agent", r.UserAgent()),
			zap.Int("status", rw.statusCode),
			zap.Int("response_size", rw.size),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *HTTPServer) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CheckSessionStore(r.Context()); err != nil {
		s.logger.Error("Health check failed", zap.Error(err))
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"upstream": string(s.service.UpstreamState()),
	})
}

func (s *HTTPServer) getSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.SessionState(r.Context(), SessionID(r.Context()))
	if err != nil {
		s.logger.Error("Failed to get session state", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) wakeServer(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.WakeServer(r.Context(), SessionID(r.Context()))
	if err != nil {
		s.logger.Error("Failed to wake server", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusAccepted, state)
}

func (s *HTTPServer) assessRisk(w http.ResponseWriter, r *http.Request) {
	var profile domain.HealthProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.service.AssessRisk(r.Context(), SessionID(r.Context()), profile)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidProfile) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("Failed to assess risk", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) analyzeECG(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUploadBytes {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.Warn("Failed to remove multipart temp files", zap.Error(err))
		}
	}()

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("Failed to read uploaded file", zap.Error(err))
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	analysis, err := s.service.AnalyzeECG(r.Context(), SessionID(r.Context()), header.Filename, content)
	if err != nil {
		if errors.Is(err, service.ErrAnalysisInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		s.logger.Error("Failed to analyze ECG", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, analysis)
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
