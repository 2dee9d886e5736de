package storage

import (
	"context"
	"sync"
	"time"

	"bossika/internal/core"
	"bossika/internal/ledger"
)

// MemoryStore is an in-memory Store used by tests and the dev backend.
// It mirrors the SQLite ordering semantics, including the
// (date_recorded, id) tie-break.
type MemoryStore struct {
	mu         sync.RWMutex
	businesses map[int64]core.BusinessProfile
	cashflows  map[int64]core.CashFlow
	loans      map[int64]core.BusinessLoan
	repayments map[int64]core.LoanRepayment
	nextID     int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		businesses: make(map[int64]core.BusinessProfile),
		cashflows:  make(map[int64]core.CashFlow),
		loans:      make(map[int64]core.BusinessLoan),
		repayments: make(map[int64]core.LoanRepayment),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) nextIDLocked() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) CreateBusiness(_ context.Context, b *core.BusinessProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	b.ID = s.nextIDLocked()
	s.businesses[b.ID] = *b
	return nil
}

func (s *MemoryStore) GetBusiness(_ context.Context, id int64) (core.BusinessProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.businesses[id]
	if !ok {
		return core.BusinessProfile{}, ErrNotFound
	}
	return b, nil
}

func (s *MemoryStore) ListBusinesses(_ context.Context) ([]core.BusinessProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.BusinessProfile
	for id := int64(1); id <= s.nextID; id++ {
		if b, ok := s.businesses[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateCashFlow(_ context.Context, cf *core.CashFlow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cf.CreatedAt.IsZero() {
		cf.CreatedAt = time.Now().UTC()
	}
	cf.ID = s.nextIDLocked()
	s.cashflows[cf.ID] = *cf
	return nil
}

func (s *MemoryStore) ListCashFlows(_ context.Context, businessID int64) ([]core.CashFlow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.CashFlow
	for id := int64(1); id <= s.nextID; id++ {
		if cf, ok := s.cashflows[id]; ok && cf.BusinessID == businessID {
			out = append(out, cf)
		}
	}
	return out, nil
}

func (s *MemoryStore) LatestCashFlowBefore(_ context.Context, businessID int64, before core.Date) (*core.CashFlow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *core.CashFlow
	for id := int64(1); id <= s.nextID; id++ {
		cf, ok := s.cashflows[id]
		if !ok || cf.BusinessID != businessID || cf.DateRecorded == nil {
			continue
		}
		if !cf.DateRecorded.Before(before) {
			continue
		}
		if best == nil ||
			best.DateRecorded.Before(*cf.DateRecorded) ||
			(best.DateRecorded.Equal(cf.DateRecorded.Time) && cf.ID > best.ID) {
			copied := cf
			best = &copied
		}
	}
	return best, nil
}

func (s *MemoryStore) RecomputeBalances(_ context.Context, businessID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ordered []core.CashFlow
	for id := int64(1); id <= s.nextID; id++ {
		if cf, ok := s.cashflows[id]; ok && cf.BusinessID == businessID && cf.DateRecorded != nil {
			ordered = append(ordered, cf)
		}
	}
	// Insertion order already sorts by id; stable-sort by date on top.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].DateRecorded.Before(*ordered[j-1].DateRecorded); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	var running core.Money
	for _, cf := range ordered {
		running = running.Add(ledger.SignedAmount(cf))
		balance := running
		cf.Balance = &balance
		s.cashflows[cf.ID] = cf
	}
	return len(ordered), nil
}

func (s *MemoryStore) CreateLoan(_ context.Context, l *core.BusinessLoan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	if l.Status == "" {
		l.Status = core.LoanPending
	}
	l.ID = s.nextIDLocked()
	s.loans[l.ID] = *l
	return nil
}

func (s *MemoryStore) GetLoan(_ context.Context, id int64) (core.BusinessLoan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.loans[id]
	if !ok {
		return core.BusinessLoan{}, ErrNotFound
	}
	return l, nil
}

func (s *MemoryStore) ListLoans(_ context.Context, businessID int64) ([]core.BusinessLoan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.BusinessLoan
	for id := int64(1); id <= s.nextID; id++ {
		if l, ok := s.loans[id]; ok && l.BusinessID == businessID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListPendingLoans(_ context.Context) ([]core.BusinessLoan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.BusinessLoan
	for id := int64(1); id <= s.nextID; id++ {
		if l, ok := s.loans[id]; ok && l.Status == core.LoanPending {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateLoanStatus(_ context.Context, loanID int64, status core.LoanStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[loanID]
	if !ok {
		return ErrNotFound
	}
	l.Status = status
	s.loans[loanID] = l
	return nil
}

func (s *MemoryStore) CreateRepayment(_ context.Context, r *core.LoanRepayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.ID = s.nextIDLocked()
	s.repayments[r.ID] = *r
	return nil
}

func (s *MemoryStore) GetRepayment(_ context.Context, id int64) (core.LoanRepayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.repayments[id]
	if !ok {
		return core.LoanRepayment{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) UpdateRepayment(_ context.Context, r *core.LoanRepayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.repayments[r.ID]; !ok {
		return ErrNotFound
	}
	s.repayments[r.ID] = *r
	return nil
}

func (s *MemoryStore) ListRepayments(_ context.Context, loanID int64) ([]core.LoanRepayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.LoanRepayment
	for id := int64(1); id <= s.nextID; id++ {
		if r, ok := s.repayments[id]; ok && r.LoanID == loanID {
			out = append(out, r)
		}
	}
	return out, nil
}
