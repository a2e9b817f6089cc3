package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memStore is an in-memory record store with injectable failures.
type memStore struct {
	mu         sync.Mutex
	accounts   map[string]*domain.Account
	deliveries map[string]*domain.Delivery
	audit      []*domain.AuditEntry

	countErr   error
	probeErr   error
	auditErr   error
	listErr    error
	insertErrs []error // consumed one per InsertDelivery call

	dailyCount   int
	accountCalls int
	probes       []string
}

func newMemStore() *memStore {
	return &memStore{
		accounts:   map[string]*domain.Account{},
		deliveries: map[string]*domain.Delivery{},
	}
}

func (s *memStore) FindAccountByUsername(_ context.Context, username string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountCalls++
	a, ok := s.accounts[username]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) FindAccountByUsernameFold(_ context.Context, username string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, a := range s.accounts {
		if strings.EqualFold(name, username) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *memStore) CreateAccount(_ context.Context, a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.Username]; ok {
		return domain.ErrAccountExists
	}
	a.ID = "acc-" + a.Username
	cp := *a
	s.accounts[a.Username] = &cp
	return nil
}

func (s *memStore) CountDeliveriesCreatedBetween(context.Context, time.Time, time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.dailyCount, nil
}

func (s *memStore) DeliveryExistsWithDisplayID(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes = append(s.probes, id)
	if s.probeErr != nil {
		return false, s.probeErr
	}
	_, ok := s.deliveries[id]
	return ok, nil
}

func (s *memStore) InsertDelivery(_ context.Context, d *domain.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.insertErrs) > 0 {
		err := s.insertErrs[0]
		s.insertErrs = s.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := s.deliveries[d.DisplayID]; ok {
		return domain.ErrDuplicateDisplayID
	}
	cp := *d
	s.deliveries[d.DisplayID] = &cp
	return nil
}

func (s *memStore) FindDeliveryByDisplayID(_ context.Context, id string) (*domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[id]
	if !ok {
		return nil, domain.ErrDeliveryNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *memStore) UpdateDeliveryStatus(_ context.Context, id string, status domain.DeliveryStatus, person string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[id]
	if !ok {
		return domain.ErrDeliveryNotFound
	}
	d.Status = status
	if person != "" {
		d.DeliveryPerson = person
	}
	return nil
}

func (s *memStore) DeleteDelivery(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deliveries[id]; !ok {
		return domain.ErrDeliveryNotFound
	}
	delete(s.deliveries, id)
	return nil
}

func (s *memStore) ListDeliveriesCreatedBetween(_ context.Context, start, end time.Time) ([]*domain.Delivery, error) {
	return s.listDeliveries(func(d *domain.Delivery) bool {
		return !d.CreatedAt.Before(start) && d.CreatedAt.Before(end)
	}, 0)
}

func (s *memStore) ListUnassignedDeliveries(_ context.Context, limit int) ([]*domain.Delivery, error) {
	return s.listDeliveries(func(d *domain.Delivery) bool { return d.DeliveryPerson == "" }, limit)
}

func (s *memStore) listDeliveries(keep func(*domain.Delivery) bool, limit int) ([]*domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*domain.Delivery
	for _, d := range s.deliveries {
		if keep(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) ListAccounts(context.Context) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Active != out[j].Active {
			return out[i].Active
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

func (s *memStore) InsertAuditEntry(_ context.Context, e *domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditErr != nil {
		return s.auditErr
	}
	cp := *e
	s.audit = append(s.audit, &cp)
	return nil
}

func (s *memStore) ListAuditEntries(_ context.Context, f ports.AuditFilter) ([]*domain.AuditEntry, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := int64(len(s.audit))
	start := (f.Page - 1) * f.PerPage
	if start >= len(s.audit) {
		return nil, total, nil
	}
	end := start + f.PerPage
	if end > len(s.audit) {
		end = len(s.audit)
	}
	return s.audit[start:end], total, nil
}

func (s *memStore) entries() []*domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.AuditEntry(nil), s.audit...)
}

func (s *memStore) lastEntry() *domain.AuditEntry {
	e := s.entries()
	if len(e) == 0 {
		return nil
	}
	return e[len(e)-1]
}

// memSessions is a trivial session store keyed by token.
type memSessions struct {
	mu       sync.Mutex
	next     int
	sessions map[string]domain.Principal
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]domain.Principal{}}
}

func (m *memSessions) Create(_ context.Context, p domain.Principal) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	token := "tok-" + strings.Repeat("x", m.next)
	m.sessions[token] = p
	return token, nil
}

func (m *memSessions) Resolve(_ context.Context, token string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.sessions[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &domain.Session{ID: token, Principal: p}, nil
}

func (m *memSessions) Destroy(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

var errStoreDown = errors.New("store unavailable")

// jan17 is 2025-01-17 10:00 in Nairobi.
var jan17 = time.Date(2025, 1, 17, 10, 0, 0, 0, time.FixedZone("EAT", 3*60*60))
