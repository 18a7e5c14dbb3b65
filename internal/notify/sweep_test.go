package notify

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/garage-ops/internal/analytics"
	"github.com/ukydev/garage-ops/internal/db"
	"github.com/ukydev/garage-ops/internal/metrics"
	"github.com/ukydev/garage-ops/internal/models"
)

type recordingPublisher struct {
	mu    sync.Mutex
	ids   []string
	fail  map[string]bool
	calls int
}

func (p *recordingPublisher) Publish(_ context.Context, n models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail[n.ID] {
		return errors.New("broker down")
	}
	p.ids = append(p.ids, n.ID)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ids...)
}

func staticSource(lists ...[]models.Notification) Source {
	i := 0
	return func(context.Context) ([]models.Notification, error) {
		out := lists[i]
		if i < len(lists)-1 {
			i++
		}
		return out, nil
	}
}

func alert(id string, level models.AlertLevel) models.Notification {
	return models.Notification{ID: id, Level: level}
}

func TestSweep_PublishesOnlyNewAlerts(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewSweeper(staticSource(
		[]models.Notification{alert("a", models.LevelInfo), alert("b", models.LevelWarning)},
		[]models.Notification{alert("a", models.LevelInfo), alert("c", models.LevelDanger)},
		[]models.Notification{alert("b", models.LevelWarning)},
	), pub, nil)

	ctx := context.Background()
	first, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := s.Sweep(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "c", second[0].ID)

	_, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "b"}, pub.published())
}

func TestSweep_RetriesFailedPublish(t *testing.T) {
	pub := &recordingPublisher{fail: map[string]bool{"a": true}}
	rec, err := metrics.NewRecorder(nil)
	require.NoError(t, err)
	s := NewSweeper(staticSource([]models.Notification{alert("a", models.LevelDanger)}), pub, rec)

	_, err = s.Sweep(context.Background())
	require.NoError(t, err)
	pub.fail = nil
	published, err := s.Sweep(context.Background())
	require.NoError(t, err)

	assert.Len(t, published, 1)
	assert.Equal(t, 2, pub.calls)

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, w.Body.String(), `garage_notifications_published_total{result="error"} 1`)
	assert.Contains(t, w.Body.String(), `garage_notifications_published_total{result="ok"} 1`)
	assert.Contains(t, w.Body.String(), `garage_active_alerts{level="danger"} 1`)
}

func TestSweep_SourceError(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewSweeper(func(context.Context) ([]models.Notification, error) {
		return nil, errors.New("store offline")
	}, pub, nil)

	_, err := s.Sweep(context.Background())
	assert.EqualError(t, err, "store offline")
	assert.Zero(t, pub.calls)
}

func TestRun_StopsOnCancel(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewSweeper(staticSource([]models.Notification{alert("a", models.LevelInfo)}), pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(pub.published()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestStoreSource(t *testing.T) {
	store, err := db.NewSQLiteStore(filepath.Join(t.TempDir(), "garage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	ctx := context.Background()
	require.NoError(t, store.InsertPart(ctx, &models.Part{Name: "Oil filter", Stock: 1}))

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	alerts, err := StoreSource(store, analytics.DefaultPolicy(), func() time.Time { return now })(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.LevelWarning, alerts[0].Level)
	assert.Equal(t, now, alerts[0].CreatedAt)
}
