package warmup

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Samrat740/sleep-apnea-screening/internal/domain"
	"github.com/Samrat740/sleep-apnea-screening/internal/metrics"

	"go.uber.org/zap"
)

const DefaultInterval = 3 * time.Second

type Prober interface {
	Probe(ctx context.Context) error
}

const (
	stateIdle int32 = iota
	stateWaking
	stateOnline
)

// Warmer будит "холодный" сервис инференса.
// Переходы только idle -> waking -> online, обратно не возвращается.
type Warmer struct {
	// ctx ограничивает цикл опроса временем жизни процесса
	ctx      context.Context
	prober   Prober
	interval time.Duration
	logger   *zap.Logger

	state  atomic.Int32
	online chan struct{}
	wg     sync.WaitGroup
}

func NewWarmer(ctx context.Context, prober Prober, interval time.Duration, logger *zap.Logger) *Warmer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Warmer{
		ctx:      ctx,
		prober:   prober,
		interval: interval,
		logger:   logger,
		online:   make(chan struct{}),
	}
}

// Start запускает опрос в фоне и сразу возвращается.
// Повторные вызовы ничего не делают и возвращают текущее состояние.
func (w *Warmer) Start() domain.ServerState {
	if !w.state.CompareAndSwap(stateIdle, stateWaking) {
		return w.State()
	}
	metrics.UpstreamState.Set(float64(stateWaking))

	w.logger.Info("[Warmer] waking inference service", zap.Duration("interval", w.interval))

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.poll()
	}()

	return domain.ServerWaking
}

func (w *Warmer) poll() {
	attempt := 0
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("[Warmer] context cancelled, stopping probes", zap.Int("attempts", attempt))
			return
		case <-timer.C:
		}

		attempt++
		err := w.prober.Probe(w.ctx)
		if err == nil {
			metrics.WakeProbes.WithLabelValues("success").Inc()
			w.state.Store(stateOnline)
			metrics.UpstreamState.Set(float64(stateOnline))
			close(w.online)

			w.logger.Info("[Warmer] inference service is online", zap.Int("attempts", attempt))
			return
		}

		metrics.WakeProbes.WithLabelValues("failure").Inc()
		w.logger.Debug("[Warmer] probe failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", w.interval),
			zap.Error(err))

		timer.Reset(w.interval)
	}
}

func (w *Warmer) State() domain.ServerState {
	switch w.state.Load() {
	case stateWaking:
		return domain.ServerWaking
	case stateOnline:
		return domain.ServerOnline
	default:
		return domain.ServerIdle
	}
}

// Online закрывается, когда сервис ответил успешно
func (w *Warmer) Online() <-chan struct{} {
	return w.online
}

// Wait ждёт завершения фонового опроса (успех или отмена контекста)
func (w *Warmer) Wait() {
	w.wg.Wait()
}
