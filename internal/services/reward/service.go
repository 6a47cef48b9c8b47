package reward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrInvalidShare   = errors.New("share token not found or expired")
	ErrNotConfirmed   = errors.New("share action not confirmed")
	ErrAlreadyClaimed = errors.New("share token already claimed")
	ErrDailyLimit     = errors.New("daily share reward limit reached")
)

// ShareRecord is the payload stored at share:{share_id} for the lifetime of
// the token. The claim marker lives under a separate claim:{share_id} key so
// an unclaimed live token and a claimed one are distinguishable states.
type ShareRecord struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

type ShareStore interface {
	SaveShare(ctx context.Context, shareID string, record ShareRecord, ttl time.Duration) error
	GetShare(ctx context.Context, shareID string) (ShareRecord, bool, error)
	IsClaimed(ctx context.Context, shareID string) (bool, error)
	MarkClaimed(ctx context.Context, shareID string) (bool, error)
}

type CounterStore interface {
	IncrementBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (bool, int64, error)
	Count(ctx context.Context, key string) (int64, error)
}

type TicketGranter interface {
	GrantTicket(ctx context.Context, userID string, amount int) error
}

type Config struct {
	DailyLimit   int
	RewardAmount int
	TokenTTL     time.Duration
	BaseURL      string
	StoreURL     string
}

type Service struct {
	shares   ShareStore
	counters CounterStore
	tickets  TicketGranter
	cfg      Config
	now      func() time.Time
	newID    func() string
}

type CreateResult struct {
	ShareID  string
	ShareURL string
	StoreURL string
}

func NewService(shares ShareStore, counters CounterStore, tickets TicketGranter, cfg Config) *Service {
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = 2
	}
	if cfg.RewardAmount <= 0 {
		cfg.RewardAmount = 1
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Service{
		shares:   shares,
		counters: counters,
		tickets:  tickets,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *Service) CreateShare(ctx context.Context, userID, title, summary string) (CreateResult, error) {
	if userID == "" {
		return CreateResult{}, ErrValidation
	}
	if s.shares == nil {
		return CreateResult{}, fmt.Errorf("share store is nil")
	}

	shareID := s.newID()
	record := ShareRecord{
		UserID:  userID,
		Title:   title,
		Summary: summary,
	}
	if err := s.shares.SaveShare(ctx, shareID, record, s.cfg.TokenTTL); err != nil {
		return CreateResult{}, err
	}

	return CreateResult{
		ShareID:  shareID,
		ShareURL: s.cfg.BaseURL + "/" + shareID,
		StoreURL: s.cfg.StoreURL,
	}, nil
}

func (s *Service) GetShare(ctx context.Context, shareID string) (ShareRecord, error) {
	if shareID == "" {
		return ShareRecord{}, ErrValidation
	}
	if s.shares == nil {
		return ShareRecord{}, fmt.Errorf("share store is nil")
	}

	record, ok, err := s.shares.GetShare(ctx, shareID)
	if err != nil {
		return ShareRecord{}, err
	}
	if !ok {
		return ShareRecord{}, ErrInvalidShare
	}
	return record, nil
}

// Claim grants the share reward at most once per token and at most
// DailyLimit times per user per calendar day. The caller must assert an
// affirmative share action; opening and cancelling the share sheet
// (shared=false) grants nothing.
func (s *Service) Claim(ctx context.Context, userID, shareID string, shared bool) error {
	if userID == "" || shareID == "" {
		return ErrValidation
	}
	if s.shares == nil || s.counters == nil || s.tickets == nil {
		return fmt.Errorf("reward service is not fully wired")
	}

	_, ok, err := s.shares.GetShare(ctx, shareID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidShare
	}

	if !shared {
		return ErrNotConfirmed
	}

	claimed, err := s.shares.IsClaimed(ctx, shareID)
	if err != nil {
		return err
	}
	if claimed {
		return ErrAlreadyClaimed
	}

	count, err := s.counters.Count(ctx, s.dayKey(userID))
	if err != nil {
		return err
	}
	if count >= int64(s.cfg.DailyLimit) {
		return ErrDailyLimit
	}

	// SETNX on the marker is the real idempotence guard; the read above only
	// orders the error ahead of the daily-limit check.
	won, err := s.shares.MarkClaimed(ctx, shareID)
	if err != nil {
		return err
	}
	if !won {
		return ErrAlreadyClaimed
	}

	allowed, _, err := s.counters.IncrementBelow(ctx, s.dayKey(userID), int64(s.cfg.DailyLimit), 24*time.Hour)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrDailyLimit
	}

	return s.tickets.GrantTicket(ctx, userID, s.cfg.RewardAmount)
}

func (s *Service) dayKey(userID string) string {
	return "sharecnt:" + userID + ":" + s.now().Format("2006-01-02")
}
