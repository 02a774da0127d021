package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Samrat740/sleep-apnea-screening/internal/domain"
	"github.com/Samrat740/sleep-apnea-screening/internal/ecg"
	"github.com/Samrat740/sleep-apnea-screening/internal/events"
	"github.com/Samrat740/sleep-apnea-screening/internal/inference"
	"github.com/Samrat740/sleep-apnea-screening/internal/metrics"
	"github.com/Samrat740/sleep-apnea-screening/internal/risk"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAnalysisInProgress повторная загрузка, пока предыдущая ещё анализируется
var ErrAnalysisInProgress = errors.New("ecg analysis already in progress for this session")

// DefaultPublishTimeout ограничивает отправку одного события в фоне
const DefaultPublishTimeout = 5 * time.Second

type Classifier interface {
	Predict(ctx context.Context, fileName string, content []byte) (*inference.Prediction, error)
}

type Warmer interface {
	Start() domain.ServerState
	State() domain.ServerState
}

type SessionStore interface {
	IsWarm(ctx context.Context, sessionID uuid.UUID) (bool, error)
	MarkWarm(ctx context.Context, sessionID uuid.UUID) error
	HealthCheck(ctx context.Context) error
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ScreeningService struct {
	classifier Classifier
	warmer     Warmer
	sessions   SessionStore
	publisher  Publisher
	logger     *zap.Logger

	publishTimeout time.Duration
	publishing     sync.WaitGroup

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewScreeningService(classifier Classifier, warmer Warmer, sessions SessionStore, publisher Publisher, logger *zap.Logger) *ScreeningService {
	return &ScreeningService{
		classifier: classifier,
		warmer:     warmer,
		sessions:   sessions,
		publisher:  publisher,
		logger:     logger,

		publishTimeout: DefaultPublishTimeout,
		inFlight:       make(map[uuid.UUID]struct{}),
	}
}

// AnalyzeECG разбирает файл в серию и отправляет исходный файл классификатору.
// Ошибка классификатора не ошибка метода: вместо неё возвращается синтетический
// результат с меткой Error, а уже разобранная серия остаётся как есть.
func (s *ScreeningService) AnalyzeECG(ctx context.Context, sessionID uuid.UUID, fileName string, content []byte) (*domain.EcgAnalysis, error) {
	if !s.acquire(sessionID) {
		return nil, ErrAnalysisInProgress
	}
	defer s.release(sessionID)

	parsed := ecg.Parse(string(content))
	metrics.ECGSamplesParsed.Observe(float64(len(parsed.Series)))
	metrics.ECGRowsSkipped.Add(float64(parsed.Skipped))

	analysis := &domain.EcgAnalysis{
		FileName:    fileName,
		Series:      parsed.Series,
		SkippedRows: parsed.Skipped,
		Prediction:  s.classify(ctx, fileName, content),
	}

	metrics.ClassificationResults.WithLabelValues(analysis.Prediction.Label).Inc()

	s.logger.Info("[ScreeningService] ECG analyzed",
		zap.String("session_id", sessionID.String()),
		zap.String("file_name", fileName),
		zap.Int("samples", len(analysis.Series)),
		zap.Int("skipped_rows", analysis.SkippedRows),
		zap.String("label", analysis.Prediction.Label),
		zap.Float64("probability", analysis.Prediction.Probability))

	s.publish(ctx, events.ECGAnalyzed(sessionID.String(), *analysis))

	return analysis, nil
}

func (s *ScreeningService) classify(ctx context.Context, fileName string, content []byte) domain.PredictionResult {
	start := time.Now()
	prediction, err := s.classifier.Predict(ctx, fileName, content)
	metrics.ClassificationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Warn("[ScreeningService] classification failed",
			zap.String("file_name", fileName),
			zap.Error(err))
		return domain.FailedPrediction()
	}

	return domain.PredictionResult{
		Probability: prediction.Probability,
		Label:       prediction.Status,
		Message:     domain.PredictionMessage(prediction.Status),
	}
}

// AssessRisk проверяет анкету и считает риск
func (s *ScreeningService) AssessRisk(ctx context.Context, sessionID uuid.UUID, profile domain.HealthProfile) (*domain.RiskResult, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	result := risk.Assess(profile)
	metrics.RiskAssessments.WithLabelValues(string(result.Level)).Inc()

	s.logger.Info("[ScreeningService] risk assessed",
		zap.String("session_id", sessionID.String()),
		zap.Int("score", result.Score),
		zap.String("level", string(result.Level)))

	s.publish(ctx, events.RiskAssessed(sessionID.String(), result))

	return &result, nil
}

// SessionState сообщает клиенту состояние удалённого сервиса для его сессии.
// Если у сессии уже есть флаг прогрева, сервис считается online без проверок.
func (s *ScreeningService) SessionState(ctx context.Context, sessionID uuid.UUID) (*domain.SessionState, error) {
	warm, err := s.sessions.IsWarm(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session flag: %w", err)
	}

	state := &domain.SessionState{SessionID: sessionID.String()}
	if warm {
		state.ServerState = domain.ServerOnline
		return state, nil
	}

	state.ServerState = s.warmer.State()
	if state.ServerState == domain.ServerOnline {
		if err := s.sessions.MarkWarm(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("failed to save session flag: %w", err)
		}
		s.logger.Info("[ScreeningService] session marked warm", zap.String("session_id", sessionID.String()))
		return state, nil
	}

	state.ShowWakePrompt = true
	return state, nil
}

// WakeServer запускает прогрев и сразу возвращается, опрос идёт в фоне
func (s *ScreeningService) WakeServer(ctx context.Context, sessionID uuid.UUID) (*domain.SessionState, error) {
	warm, err := s.sessions.IsWarm(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session flag: %w", err)
	}
	if warm {
		return &domain.SessionState{SessionID: sessionID.String(), ServerState: domain.ServerOnline}, nil
	}

	state := s.warmer.Start()
	s.logger.Info("[ScreeningService] wake requested",
		zap.String("session_id", sessionID.String()),
		zap.String("server_state", string(state)))

	return &domain.SessionState{SessionID: sessionID.String(), ServerState: state}, nil
}

func (s *ScreeningService) UpstreamState() domain.ServerState {
	return s.warmer.State()
}

func (s *ScreeningService) CheckSessionStore(ctx context.Context) error {
	return s.sessions.HealthCheck(ctx)
}

// publish отправляет событие в фоне: ответ пользователю не ждёт брокер.
// Контекст запроса не отменяет отправку, срок задаёт publishTimeout.
func (s *ScreeningService) publish(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)

	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		defer cancel()

		if err := s.publisher.Publish(ctx, event); err != nil {
			metrics.EventPublishFailures.WithLabelValues(event.Type).Inc()
			s.logger.Warn("[ScreeningService] failed to publish event",
				zap.String("type", event.Type),
				zap.Error(err))
		}
	}()
}

// Wait дожидается фоновой отправки событий, вызывается перед закрытием publisher
func (s *ScreeningService) Wait() {
	s.publishing.Wait()
}

func (s *ScreeningService) acquire(sessionID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[sessionID]; busy {
		return false
	}
	s.inFlight[sessionID] = struct{}{}
	return true
}

func (s *ScreeningService) release(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, sessionID)
}
