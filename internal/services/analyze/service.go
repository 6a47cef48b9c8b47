package analyze

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrDailyLimit = errors.New("daily analysis limit exceeded")
	ErrUpstream   = errors.New("model call failed")
)

// Generator is the opaque model boundary: message plus relationship context
// in, raw free-form text out.
type Generator interface {
	Generate(ctx context.Context, message, relationship string) (string, error)
}

type Limiter interface {
	CheckAndIncrement(ctx context.Context, userID string) (bool, int64, error)
	Unlock(ctx context.Context, userID string) error
}

type Service struct {
	generator Generator
	limiter   Limiter
}

func NewService(generator Generator, limiter Limiter) *Service {
	return &Service{
		generator: generator,
		limiter:   limiter,
	}
}

// Analyze runs one request through the gate, the model and the normalizer.
// A malformed model reply degrades to the placeholder result, never an error.
func (s *Service) Analyze(ctx context.Context, userID, message, relationship string) (Result, error) {
	if message == "" {
		return Result{}, ErrValidation
	}
	if s.generator == nil {
		return Result{}, fmt.Errorf("generator is nil")
	}

	if s.limiter != nil {
		allowed, _, err := s.limiter.CheckAndIncrement(ctx, userID)
		if err != nil {
			return Result{}, err
		}
		if !allowed {
			return Result{}, ErrDailyLimit
		}
	}

	raw, err := s.generator.Generate(ctx, message, relationship)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return Normalize(raw), nil
}

// Unlock lifts today's analysis cap for the user.
func (s *Service) Unlock(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrValidation
	}
	if s.limiter == nil {
		return fmt.Errorf("limiter is nil")
	}
	return s.limiter.Unlock(ctx, userID)
}
