package store

import (
	"context"
	"sync"
	"time"

	"score-handler/internal/models"
)

// MemoryStore is a process-local Store, selected with database.in_memory and
// used by tests. It is safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	now       func() time.Time
	profiles  map[string]models.UserRiskProfile
	plans     map[string]models.AmortizationRecord
	reference []models.NonDefaulterProfile
	nextID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:      time.Now,
		profiles: make(map[string]models.UserRiskProfile),
		plans:    make(map[string]models.AmortizationRecord),
	}
}

func (m *MemoryStore) GetUserRiskProfile(_ context.Context, userID string) (*models.UserRiskProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) UpsertUserRiskProfile(_ context.Context, profile *models.UserRiskProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile.UpdatedAt = m.now().UTC()
	m.profiles[profile.UserID] = *profile
	return nil
}

func (m *MemoryStore) GetAmortizationRecord(_ context.Context, userID string) (*models.AmortizationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.plans[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStore) UpsertAmortizationRecord(_ context.Context, record *models.AmortizationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.UpdatedAt = m.now().UTC()
	m.plans[record.UserID] = *record
	return nil
}

func (m *MemoryStore) ListReferencePopulation(_ context.Context) ([]models.NonDefaulterProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.NonDefaulterProfile, len(m.reference))
	copy(out, m.reference)
	return out, nil
}

func (m *MemoryStore) InsertReferenceProfile(_ context.Context, profile *models.NonDefaulterProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.reference {
		if p.UserID == profile.UserID {
			return ErrDuplicate
		}
	}
	m.nextID++
	profile.ID = m.nextID
	profile.CreatedAt = m.now().UTC()
	m.reference = append(m.reference, *profile)
	return nil
}

func (m *MemoryStore) ReplaceReferenceProfile(_ context.Context, profile *models.NonDefaulterProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.reference {
		if p.UserID == profile.UserID {
			profile.ID = p.ID
			profile.CreatedAt = p.CreatedAt
			m.reference[i] = *profile
			return nil
		}
	}
	return ErrNotFound
}
