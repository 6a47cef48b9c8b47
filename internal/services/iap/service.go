package iap

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrMissingToken   = errors.New("receipt token is required")
	ErrUnknownProduct = errors.New("unknown product id")
	ErrReceiptUsed    = errors.New("receipt token already used")
)

const (
	ProductTicket = "gnom_ticket_1"
	ProductPass   = "gnom_pass_7"
)

type GrantKind string

const (
	GrantTicket GrantKind = "ticket"
	GrantPass   GrantKind = "pass"
)

type Ledger interface {
	GrantTicket(ctx context.Context, userID string, amount int) error
	GrantPassDays(ctx context.Context, userID string, days int) error
}

// AuditStore records verified receipts so a receipt cannot be replayed for a
// second grant. Optional: without it verification still works, unaudited.
type AuditStore interface {
	RecordPurchase(ctx context.Context, userID, productID, token string) (bool, error)
}

type Config struct {
	PassDays     int
	TicketAmount int
}

// Service is the purchase-verification stub: it trusts the client-supplied
// product id and maps it to a grant. No store receipt cryptography here.
type Service struct {
	ledger Ledger
	audit  AuditStore
	cfg    Config
}

type VerifyInput struct {
	UserID    string
	ProductID string
	Token     string
}

type VerifyResult struct {
	Grant GrantKind
}

func NewService(ledger Ledger, cfg Config) *Service {
	if cfg.PassDays <= 0 {
		cfg.PassDays = 7
	}
	if cfg.TicketAmount <= 0 {
		cfg.TicketAmount = 1
	}
	return &Service{
		ledger: ledger,
		cfg:    cfg,
	}
}

func (s *Service) AttachAudit(audit AuditStore) {
	s.audit = audit
}

func (s *Service) Verify(ctx context.Context, in VerifyInput) (VerifyResult, error) {
	if in.UserID == "" {
		return VerifyResult{}, ErrValidation
	}
	if in.Token == "" {
		return VerifyResult{}, ErrMissingToken
	}
	if s.ledger == nil {
		return VerifyResult{}, fmt.Errorf("license ledger is nil")
	}

	var grant GrantKind
	switch in.ProductID {
	case ProductTicket:
		grant = GrantTicket
	case ProductPass:
		grant = GrantPass
	default:
		return VerifyResult{}, ErrUnknownProduct
	}

	if s.audit != nil {
		fresh, err := s.audit.RecordPurchase(ctx, in.UserID, in.ProductID, in.Token)
		if err != nil {
			return VerifyResult{}, err
		}
		if !fresh {
			return VerifyResult{}, ErrReceiptUsed
		}
	}

	switch grant {
	case GrantTicket:
		if err := s.ledger.GrantTicket(ctx, in.UserID, s.cfg.TicketAmount); err != nil {
			return VerifyResult{}, err
		}
	case GrantPass:
		if err := s.ledger.GrantPassDays(ctx, in.UserID, s.cfg.PassDays); err != nil {
			return VerifyResult{}, err
		}
	}

	return VerifyResult{Grant: grant}, nil
}
