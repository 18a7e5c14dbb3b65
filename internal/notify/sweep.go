package notify

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/garage-ops/internal/analytics"
	"github.com/ukydev/garage-ops/internal/db"
	"github.com/ukydev/garage-ops/internal/metrics"
	"github.com/ukydev/garage-ops/internal/models"
)

// Source produces the current alert list.
type Source func(ctx context.Context) ([]models.Notification, error)

// StoreSource builds alerts from everything in store.
func StoreSource(store db.GarageStore, policy analytics.Policy, now func() time.Time) Source {
	return func(ctx context.Context) ([]models.Notification, error) {
		vehicles, err := store.FindVehicles(ctx)
		if err != nil {
			return nil, err
		}
		parts, err := store.FindParts(ctx)
		if err != nil {
			return nil, err
		}
		return analytics.BuildAlerts(vehicles, parts, policy, now()), nil
	}
}

// Sweeper periodically rebuilds the alert list and publishes alerts that were
// not active on the previous sweep. An alert that clears and comes back is
// published again.
type Sweeper struct {
	source    Source
	publisher Publisher
	metrics   *metrics.Recorder

	mu     sync.Mutex
	active map[string]bool
}

// NewSweeper wires a sweeper. rec may be nil.
func NewSweeper(source Source, publisher Publisher, rec *metrics.Recorder) *Sweeper {
	return &Sweeper{
		source:    source,
		publisher: publisher,
		metrics:   rec,
		active:    make(map[string]bool),
	}
}

// Sweep runs one pass and returns the alerts it published.
func (s *Sweeper) Sweep(ctx context.Context) ([]models.Notification, error) {
	alerts, err := s.source(ctx)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordAlerts(alerts)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]bool, len(alerts))
	published := make([]models.Notification, 0)
	for _, a := range alerts {
		current[a.ID] = true
		if s.active[a.ID] {
			continue
		}
		err := s.publisher.Publish(ctx, a)
		if s.metrics != nil {
			s.metrics.RecordPublish(err)
		}
		if err != nil {
			// Left out of current so the next sweep retries it.
			delete(current, a.ID)
			log.WithError(err).WithField("alert_id", a.ID).Warn("Failed to publish alert")
			continue
		}
		published = append(published, a)
	}
	s.active = current
	return published, nil
}

// Run sweeps immediately and then every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	log.WithField("interval", interval).Info("Alert sweep started")
	s.sweepAndLog(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Alert sweep stopped")
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	published, err := s.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Error("Alert sweep failed")
		}
		return
	}
	if len(published) > 0 {
		log.WithField("published", len(published)).Info("Published new alerts")
	}
}
