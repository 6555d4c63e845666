package heartbeat

import (
	"context"
	"time"

	"pulsemon/internals/modules/monitor"

	"github.com/rs/zerolog"
)

// Store is the slice of the monitor store the heartbeat path needs.
type Store interface {
	RecordHeartbeat(ctx context.Context, slug, token string, now time.Time) (monitor.Snapshot, *monitor.Transition, error)
}

// Sink receives committed transitions for notification fan-out.
type Sink interface {
	Enqueue(tr monitor.Transition)
}

type Service struct {
	store  Store
	alerts Sink
	logger *zerolog.Logger
}

func NewService(store Store, alerts Sink, logger *zerolog.Logger) *Service {
	return &Service{
		store:  store,
		alerts: alerts,
		logger: logger,
	}
}

// Ping processes one inbound check-in. The store applies the whole
// read-modify-write atomically, so by the time a transition comes back
// here it is already durable and only the fan-out remains.
func (s *Service) Ping(ctx context.Context, slug, token string) error {
	now := time.Now().UTC()

	_, tr, err := s.store.RecordHeartbeat(ctx, slug, token, now)
	if err != nil {
		return err
	}

	if tr != nil {
		s.logger.Info().
			Str("slug", slug).
			Str("prev_status", string(tr.Prev)).
			Str("new_status", string(tr.New)).
			Msg("monitor recovered by heartbeat")
		s.alerts.Enqueue(*tr)
	}

	return nil
}
