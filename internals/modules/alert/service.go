package alert

import (
	"context"
	"sync"

	"pulsemon/internals/modules/monitor"

	"github.com/rs/zerolog"
)

// Webhook delivers a transition snapshot to its webhook destination.
type Webhook interface {
	Send(ctx context.Context, snap monitor.Snapshot)
}

// Events publishes transitions to the message broker, nil when no broker
// is configured.
type Events interface {
	PublishTransition(ctx context.Context, tr monitor.Transition) error
}

// AlertService fans committed transitions out to the webhook notifier,
// the event publisher and the overview cache invalidation. Everything in
// here is best-effort and runs off the transition pipeline's critical
// path.
type AlertService struct {
	// lifecycle
	ctx         context.Context
	workerCount int
	workerWG    sync.WaitGroup

	// channels
	alertChan chan monitor.Transition

	// collaborators
	webhook Webhook
	events  Events
	cache   monitor.Cache

	// misc
	logger *zerolog.Logger
}

func NewAlertService(
	ctx context.Context,
	workerCount int,
	alertChan chan monitor.Transition,
	webhook Webhook,
	events Events,
	cache monitor.Cache,
	logger *zerolog.Logger,
) *AlertService {
	return &AlertService{
		ctx:         ctx,
		workerCount: workerCount,
		alertChan:   alertChan,
		webhook:     webhook,
		events:      events,
		cache:       cache,
		logger:      logger,
	}
}

// Start starts the alert workers.
func (s *AlertService) Start() {

	s.workerWG.Add(s.workerCount)

	for i := 0; i < s.workerCount; i++ {
		go s.handleAlerts()
	}
}

// Enqueue hands a committed transition to the workers. It never blocks:
// when the channel is full the event is dropped and logged, a lost
// notification must not stall heartbeat handling or evaluation.
func (s *AlertService) Enqueue(tr monitor.Transition) {
	select {
	case s.alertChan <- tr:
	default:
		s.logger.Warn().
			Str("slug", tr.Snapshot.Slug).
			Msg("alert channel full, dropping transition notification")
	}
}

func (s *AlertService) handleAlerts() {
	defer s.workerWG.Done()

	for tr := range s.alertChan {
		// deliveries drained during shutdown run after the server context
		// is cancelled; each call is bounded by its own client timeout
		ctx := context.WithoutCancel(s.ctx)

		if s.cache != nil {
			if err := s.cache.DelOverview(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("failed to invalidate status overview cache")
			}
		}

		if s.events != nil {
			if err := s.events.PublishTransition(ctx, tr); err != nil {
				s.logger.Warn().
					Err(err).
					Str("slug", tr.Snapshot.Slug).
					Msg("failed to publish transition event")
			}
		}

		if tr.Snapshot.WebhookURL != "" {
			s.webhook.Send(ctx, tr.Snapshot)
		}
	}
}

// Stop closes the alert channel and waits for in-flight notifications.
// Call only after all producers have stopped.
func (s *AlertService) Stop() {
	close(s.alertChan)
	s.workerWG.Wait()
}
