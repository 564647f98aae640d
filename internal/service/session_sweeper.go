package service

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

type sessionCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

// SessionSweeper periodically deletes expired and revoked sessions.
type SessionSweeper struct {
	sessions sessionCleaner
	cron     *cron.Cron
}

func NewSessionSweeper(sessions sessionCleaner, schedule string) (*SessionSweeper, error) {
	s := &SessionSweeper{sessions: sessions, cron: cron.New()}
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SessionSweeper) Start() {
	s.cron.Start()
}

// Stop waits for a running sweep to finish or ctx to end.
func (s *SessionSweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *SessionSweeper) Sweep(ctx context.Context) {
	removed, err := s.sessions.CleanExpired(ctx)
	if err != nil {
		slog.Warn("session sweep failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("removed stale sessions", "count", removed)
	}
}
