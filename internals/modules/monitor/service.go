package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pulsemon/internals/security"
	"pulsemon/pkg/apperror"
	"pulsemon/pkg/redisstore"

	"github.com/rs/zerolog"
)

const overviewTTL = 10 * time.Second

type Service struct {
	repo   *Repository
	cache  Cache // nil when redis is not configured
	logger *zerolog.Logger
}

func NewService(repo *Repository, cache Cache, logger *zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// CreateMonitor mints a fresh random capability token and persists the
// monitor. A duplicate slug surfaces as a conflict before anything is
// written.
func (s *Service) CreateMonitor(ctx context.Context, cmd CreateMonitorCmd) (Monitor, error) {
	const op string = "service.monitor.create"

	token, err := security.NewHeartbeatToken(security.HeartbeatTokenLength)
	if err != nil {
		return Monitor{}, apperror.New(apperror.Internal, op, err)
	}
	cmd.Token = token

	m, err := s.repo.Create(ctx, cmd)
	if err != nil {
		return Monitor{}, err
	}

	s.invalidateOverview(ctx)
	return m, nil
}

func (s *Service) GetMonitor(ctx context.Context, slug string) (Monitor, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) ListMonitors(ctx context.Context) ([]Monitor, error) {
	return s.repo.ListAll(ctx)
}

// DeleteMonitor removes the monitor and, by cascade, exactly its own
// history entries.
func (s *Service) DeleteMonitor(ctx context.Context, slug string) error {
	if err := s.repo.Delete(ctx, slug); err != nil {
		return err
	}
	s.invalidateOverview(ctx)
	return nil
}

func (s *Service) History(ctx context.Context, slug string, limit int32) ([]HistoryEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	// surface NotFound for unknown slugs instead of an empty list
	if _, err := s.repo.GetBySlug(ctx, slug); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, slug, limit)
}

type OverviewItem struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Status      Status     `json:"status"`
	IntervalSec int32      `json:"interval_seconds"`
	GraceSec    int32      `json:"grace_seconds"`
	LastPing    *time.Time `json:"last_ping"`
}

// Overview renders the public status page data, read-through cached in
// redis with a short TTL. The cache is dropped on every committed
// transition so a status flip shows up immediately.
func (s *Service) Overview(ctx context.Context) ([]byte, error) {
	const op string = "service.monitor.overview"

	if data, ok := s.overviewFromCache(ctx); ok {
		return data, nil
	}

	monitors, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]OverviewItem, 0, len(monitors))
	for i := range monitors {
		m := &monitors[i]
		items = append(items, OverviewItem{
			Name:        m.Name,
			Slug:        m.Slug,
			Status:      m.Status,
			IntervalSec: m.IntervalSec,
			GraceSec:    m.GraceSec,
			LastPing:    m.LastPing,
		})
	}

	data, err := json.Marshal(items)
	if err != nil {
		return nil, apperror.New(apperror.Internal, op, err)
	}

	if s.cache != nil {
		if err := s.cache.SetOverview(ctx, data, overviewTTL); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache status overview")
		}
	}

	return data, nil
}

// overviewFromCache returns the cached overview on a hit. A miss is
// silent, any other cache failure is logged and falls through to the
// database.
func (s *Service) overviewFromCache(ctx context.Context) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.GetOverview(ctx)
	if err == nil {
		return data, true
	}
	if !errors.Is(err, redisstore.ErrKeyNotFound) {
		s.logger.Warn().Err(err).Msg("status overview cache read failed")
	}
	return nil, false
}

func (s *Service) invalidateOverview(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DelOverview(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate status overview cache")
	}
}
