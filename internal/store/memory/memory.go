// Package memory is an in-memory MessageStore for tests and local runs. It
// honors the same claim-lease and conditional-transition contract as the
// postgres store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/ports"

	"github.com/google/uuid"
)

// Store implements ports.MessageStore in process memory.
type Store struct {
	mu     sync.Mutex
	msgs   map[uuid.UUID]*domain.Message
	leases map[uuid.UUID]time.Time
	order  []uuid.UUID

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		msgs:   make(map[uuid.UUID]*domain.Message),
		leases: make(map[uuid.UUID]time.Time),
		now:    time.Now,
	}
}

// AdvanceClock shifts the store's notion of now forward, so tests can expire
// leases without sleeping.
func (s *Store) AdvanceClock(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.now
	s.now = func() time.Time { return prev().Add(d) }
}

func (s *Store) CreateMessages(ctx context.Context, msgs []domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range msgs {
		cp := m
		s.msgs[m.ID] = &cp
		s.order = append(s.order, m.ID)
	}
	return nil
}

func (s *Store) GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.msgs[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *Store) ClaimQueued(ctx context.Context, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var out []domain.Message
	for _, id := range s.order {
		if len(out) >= limit {
			break
		}
		m := s.msgs[id]
		if m.State != domain.StateQueued {
			continue
		}
		if until, leased := s.leases[id]; leased && until.After(now) {
			continue
		}
		s.leases[id] = now.Add(ports.ClaimLease)
		out = append(out, *m)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ClaimOne(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.msgs[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	if m.State != domain.StateQueued {
		return nil, domain.ErrAlreadyClaimed
	}
	now := s.now()
	if until, leased := s.leases[id]; leased && until.After(now) {
		return nil, domain.ErrAlreadyClaimed
	}

	s.leases[id] = now.Add(ports.ClaimLease)
	cp := *m
	return &cp, nil
}

func (s *Store) MarkSent(ctx context.Context, id uuid.UUID, providerID, correlationID, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.msgs[id]
	if !ok {
		return domain.ErrMessageNotFound
	}
	if m.State != domain.StateQueued {
		return domain.ErrMessageNotFound
	}

	m.State = domain.StateSent
	m.ProviderID = providerID
	m.CorrelationID = correlationID
	m.RawResponse = raw
	m.LastError = ""
	m.UpdatedAt = s.now().UTC()
	delete(s.leases, id)
	return nil
}

func (s *Store) RecordRetry(ctx context.Context, id uuid.UUID, lastError, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.msgs[id]
	if !ok {
		return domain.ErrMessageNotFound
	}
	if m.State != domain.StateQueued {
		return domain.ErrMessageNotFound
	}

	m.RetryCount++
	m.LastError = lastError
	m.RawResponse = raw
	m.UpdatedAt = s.now().UTC()
	delete(s.leases, id)
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, lastError, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.msgs[id]
	if !ok {
		return domain.ErrMessageNotFound
	}
	if m.State != domain.StateQueued {
		return domain.ErrMessageNotFound
	}

	m.State = domain.StateFailed
	m.LastError = lastError
	m.RawResponse = raw
	m.UpdatedAt = s.now().UTC()
	delete(s.leases, id)
	return nil
}

func (s *Store) FindByCorrelationID(ctx context.Context, correlationID string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if correlationID == "" {
		return nil, domain.ErrMessageNotFound
	}
	for _, id := range s.order {
		if m := s.msgs[id]; m.CorrelationID == correlationID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrMessageNotFound
}

func (s *Store) ApplyDeliveryState(ctx context.Context, id uuid.UUID, next domain.State, rawPayload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.msgs[id]
	if !ok {
		return domain.ErrMessageNotFound
	}

	// Raw payload is always recorded for audit, even when the transition is
	// refused.
	m.RawResponse = rawPayload
	if m.State == domain.StateSent && next != domain.StateSent {
		m.State = next
	}
	m.UpdatedAt = s.now().UTC()
	return nil
}
