package license

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrValidation = errors.New("validation error")

// PassRecord mirrors the stored pass payload at pass:{user}.
type PassRecord struct {
	Active bool       `json:"active"`
	Until  *time.Time `json:"until"`
}

type Store interface {
	InitBalances(ctx context.Context, userID string, freeCredits int) error
	FreeCredits(ctx context.Context, userID string) (int, error)
	Tickets(ctx context.Context, userID string) (int, error)
	AddTickets(ctx context.Context, userID string, amount int) error
	SpendTicket(ctx context.Context, userID string) (bool, error)
	SpendFreeCredit(ctx context.Context, userID string) (bool, error)
	LoadPass(ctx context.Context, userID string) (PassRecord, bool, error)
	SavePass(ctx context.Context, userID string, pass PassRecord) error
}

type Config struct {
	FreeCredits int
}

type Service struct {
	store Store
	cfg   Config
	now   func() time.Time
}

type Status struct {
	Free       int
	Tickets    int
	PassActive bool
	PassUntil  *time.Time
}

func NewService(store Store, cfg Config) *Service {
	if cfg.FreeCredits < 0 {
		cfg.FreeCredits = 0
	}
	return &Service{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Bootstrap grants the default free credits exactly once per user.
// Repeat calls leave existing balances untouched and just report status.
func (s *Service) Bootstrap(ctx context.Context, userID string) (Status, error) {
	if userID == "" {
		return Status{}, ErrValidation
	}
	if s.store == nil {
		return Status{}, fmt.Errorf("license store is nil")
	}

	if err := s.store.InitBalances(ctx, userID, s.cfg.FreeCredits); err != nil {
		return Status{}, err
	}

	return s.Status(ctx, userID)
}

// Status reads current balances. An expired pass is cleared here as a side
// effect, so a stale pass record never survives past its first read.
func (s *Service) Status(ctx context.Context, userID string) (Status, error) {
	if userID == "" {
		return Status{}, ErrValidation
	}
	if s.store == nil {
		return Status{}, fmt.Errorf("license store is nil")
	}

	pass, err := s.loadPass(ctx, userID)
	if err != nil {
		return Status{}, err
	}

	free, err := s.store.FreeCredits(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	tickets, err := s.store.Tickets(ctx, userID)
	if err != nil {
		return Status{}, err
	}

	return Status{
		Free:       free,
		Tickets:    tickets,
		PassActive: pass.Active,
		PassUntil:  pass.Until,
	}, nil
}

// ConsumeOne spends a single unit of access. Order is fixed: an active pass
// satisfies the call without decrementing anything, then tickets, then free
// credits. Returns false with no decrement when all three are exhausted.
func (s *Service) ConsumeOne(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrValidation
	}
	if s.store == nil {
		return false, fmt.Errorf("license store is nil")
	}

	pass, err := s.loadPass(ctx, userID)
	if err != nil {
		return false, err
	}
	if pass.Active {
		return true, nil
	}

	spent, err := s.store.SpendTicket(ctx, userID)
	if err != nil {
		return false, err
	}
	if spent {
		return true, nil
	}

	spent, err = s.store.SpendFreeCredit(ctx, userID)
	if err != nil {
		return false, err
	}
	return spent, nil
}

// GrantTicket adds to the ticket balance. Non-positive amounts are a no-op.
func (s *Service) GrantTicket(ctx context.Context, userID string, amount int) error {
	if userID == "" {
		return ErrValidation
	}
	if s.store == nil {
		return fmt.Errorf("license store is nil")
	}
	if amount <= 0 {
		return nil
	}
	return s.store.AddTickets(ctx, userID, amount)
}

// GrantPassDays activates a pass for the given number of days. An existing
// pass that already reaches further stays as is (stacking keeps the max);
// non-positive days deactivates the pass immediately.
func (s *Service) GrantPassDays(ctx context.Context, userID string, days int) error {
	if userID == "" {
		return ErrValidation
	}
	if s.store == nil {
		return fmt.Errorf("license store is nil")
	}

	if days <= 0 {
		return s.store.SavePass(ctx, userID, PassRecord{Active: false, Until: nil})
	}

	until := s.now().UTC().Add(time.Duration(days) * 24 * time.Hour)

	existing, ok, err := s.store.LoadPass(ctx, userID)
	if err != nil {
		return err
	}
	if ok && existing.Active && existing.Until != nil && existing.Until.After(until) {
		until = *existing.Until
	}

	return s.store.SavePass(ctx, userID, PassRecord{Active: true, Until: &until})
}

func (s *Service) loadPass(ctx context.Context, userID string) (PassRecord, error) {
	pass, ok, err := s.store.LoadPass(ctx, userID)
	if err != nil {
		return PassRecord{}, err
	}
	if !ok {
		return PassRecord{Active: false}, nil
	}

	if pass.Active && (pass.Until == nil || !pass.Until.After(s.now().UTC())) {
		cleared := PassRecord{Active: false, Until: nil}
		if err := s.store.SavePass(ctx, userID, cleared); err != nil {
			return PassRecord{}, err
		}
		return cleared, nil
	}

	return pass, nil
}
