package session

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/Brownie44l1/plant-predict-ui/internal/view"
)

// Factory builds a fresh view for a new session.
type Factory func() *view.View

// Manager binds one view to each browser session. Views idle longer than
// the TTL are evicted and closed.
type Manager struct {
	views   *cache.Cache
	ttl     time.Duration
	factory Factory
	logger  *slog.Logger
}

func NewManager(ttl time.Duration, factory Factory, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	views := cache.New(ttl, ttl/2)
	views.OnEvicted(func(id string, item interface{}) {
		if v, ok := item.(*view.View); ok {
			v.Close()
		}
		logger.Debug("view discarded", "session", id)
	})
	return &Manager{
		views:   views,
		ttl:     ttl,
		factory: factory,
		logger:  logger,
	}
}

// Get returns the view for id, creating one under a new id when id is
// unknown or expired. The returned id is the one to hand back to the client.
func (m *Manager) Get(id string) (*view.View, string) {
	if id != "" {
		if item, ok := m.views.Get(id); ok {
			v := item.(*view.View)
			if m.touch(id, v) {
				return v, id
			}
		}
	}

	id = uuid.NewString()
	v := m.factory()
	m.views.Set(id, v, cache.DefaultExpiration)
	m.logger.Debug("view created", "session", id)
	return v, id
}

// touch extends the TTL of id. It fails when id was discarded or expired
// since it was read, so a closed view is never reinstated.
func (m *Manager) touch(id string, v *view.View) bool {
	return m.views.Replace(id, v, cache.DefaultExpiration) == nil
}

// Lookup returns the view for id without creating or refreshing it.
func (m *Manager) Lookup(id string) (*view.View, bool) {
	item, ok := m.views.Get(id)
	if !ok {
		return nil, false
	}
	return item.(*view.View), true
}

// Discard closes and forgets the view bound to id.
func (m *Manager) Discard(id string) {
	m.views.Delete(id)
}

func (m *Manager) Len() int {
	return m.views.ItemCount()
}

// Close discards every view.
func (m *Manager) Close() {
	for id := range m.views.Items() {
		m.views.Delete(id)
	}
}
