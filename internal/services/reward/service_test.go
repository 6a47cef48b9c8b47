package reward

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeShareStore struct {
	shares  map[string]ShareRecord
	claimed map[string]bool
}

func newFakeShareStore() *fakeShareStore {
	return &fakeShareStore{
		shares:  make(map[string]ShareRecord),
		claimed: make(map[string]bool),
	}
}

func (f *fakeShareStore) SaveShare(_ context.Context, shareID string, record ShareRecord, _ time.Duration) error {
	f.shares[shareID] = record
	return nil
}

func (f *fakeShareStore) GetShare(_ context.Context, shareID string) (ShareRecord, bool, error) {
	record, ok := f.shares[shareID]
	return record, ok, nil
}

func (f *fakeShareStore) IsClaimed(_ context.Context, shareID string) (bool, error) {
	return f.claimed[shareID], nil
}

func (f *fakeShareStore) MarkClaimed(_ context.Context, shareID string) (bool, error) {
	if f.claimed[shareID] {
		return false, nil
	}
	f.claimed[shareID] = true
	return true, nil
}

type fakeCounterStore struct {
	counts map[string]int64
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counts: make(map[string]int64)}
}

func (f *fakeCounterStore) IncrementBelow(_ context.Context, key string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.counts[key] >= limit {
		return false, f.counts[key], nil
	}
	f.counts[key]++
	return true, f.counts[key], nil
}

func (f *fakeCounterStore) Count(_ context.Context, key string) (int64, error) {
	return f.counts[key], nil
}

type fakeGranter struct {
	granted map[string]int
}

func newFakeGranter() *fakeGranter {
	return &fakeGranter{granted: make(map[string]int)}
}

func (f *fakeGranter) GrantTicket(_ context.Context, userID string, amount int) error {
	f.granted[userID] += amount
	return nil
}

func newTestService(shares ShareStore, counters CounterStore, granter TicketGranter) *Service {
	svc := NewService(shares, counters, granter, Config{
		DailyLimit:   2,
		RewardAmount: 1,
		TokenTTL:     24 * time.Hour,
		BaseURL:      "https://gnom.ai/share",
		StoreURL:     "https://gnom.ai/app",
	})
	svc.now = func() time.Time {
		return time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestCreateShareReturnsFreshIDAndURL(t *testing.T) {
	shares := newFakeShareStore()
	svc := newTestService(shares, newFakeCounterStore(), newFakeGranter())
	ctx := context.Background()

	first, err := svc.CreateShare(ctx, "u1", "title", "summary")
	if err != nil {
		t.Fatalf("create share: %v", err)
	}
	if first.ShareID == "" {
		t.Fatalf("share id must not be empty")
	}
	if first.ShareURL != "https://gnom.ai/share/"+first.ShareID {
		t.Fatalf("unexpected share url: %s", first.ShareURL)
	}

	second, err := svc.CreateShare(ctx, "u1", "title", "summary")
	if err != nil {
		t.Fatalf("create share #2: %v", err)
	}
	if first.ShareID == second.ShareID {
		t.Fatalf("share ids must be unique")
	}

	if _, ok := shares.shares[first.ShareID]; !ok {
		t.Fatalf("share payload was not stored")
	}
}

func TestClaimGrantsTicketOnce(t *testing.T) {
	shares := newFakeShareStore()
	granter := newFakeGranter()
	svc := newTestService(shares, newFakeCounterStore(), granter)
	ctx := context.Background()

	created, err := svc.CreateShare(ctx, "u1", "t", "s")
	if err != nil {
		t.Fatalf("create share: %v", err)
	}

	if err := svc.Claim(ctx, "u1", created.ShareID, true); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if granter.granted["u1"] != 1 {
		t.Fatalf("claim must grant one ticket: %d", granter.granted["u1"])
	}

	err = svc.Claim(ctx, "u1", created.ShareID, true)
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("second claim: expected ErrAlreadyClaimed, got %v", err)
	}

	// Even a "shared=false" retry reports the claim conflict, not confirmation.
	err = svc.Claim(ctx, "u1", created.ShareID, false)
	if !errors.Is(err, ErrNotConfirmed) && !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if granter.granted["u1"] != 1 {
		t.Fatalf("retries must not grant again: %d", granter.granted["u1"])
	}
}

func TestClaimRejectsUnknownToken(t *testing.T) {
	svc := newTestService(newFakeShareStore(), newFakeCounterStore(), newFakeGranter())

	err := svc.Claim(context.Background(), "u1", "missing", true)
	if !errors.Is(err, ErrInvalidShare) {
		t.Fatalf("expected ErrInvalidShare, got %v", err)
	}
}

func TestClaimRequiresConfirmedShare(t *testing.T) {
	shares := newFakeShareStore()
	granter := newFakeGranter()
	counters := newFakeCounterStore()
	svc := newTestService(shares, counters, granter)
	ctx := context.Background()

	created, err := svc.CreateShare(ctx, "u1", "t", "s")
	if err != nil {
		t.Fatalf("create share: %v", err)
	}

	err = svc.Claim(ctx, "u1", created.ShareID, false)
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if granter.granted["u1"] != 0 {
		t.Fatalf("cancelled share must not grant: %d", granter.granted["u1"])
	}
	if len(counters.counts) != 0 {
		t.Fatalf("cancelled share must not count: %+v", counters.counts)
	}
	if shares.claimed[created.ShareID] {
		t.Fatalf("cancelled share must stay claimable")
	}
}

func TestClaimEnforcesDailyCapAcrossTokens(t *testing.T) {
	shares := newFakeShareStore()
	granter := newFakeGranter()
	svc := newTestService(shares, newFakeCounterStore(), granter)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		created, err := svc.CreateShare(ctx, "u1", "t", "s")
		if err != nil {
			t.Fatalf("create share #%d: %v", i+1, err)
		}
		ids = append(ids, created.ShareID)
	}

	if err := svc.Claim(ctx, "u1", ids[0], true); err != nil {
		t.Fatalf("claim #1: %v", err)
	}
	if err := svc.Claim(ctx, "u1", ids[1], true); err != nil {
		t.Fatalf("claim #2: %v", err)
	}

	err := svc.Claim(ctx, "u1", ids[2], true)
	if !errors.Is(err, ErrDailyLimit) {
		t.Fatalf("third claim of the day: expected ErrDailyLimit, got %v", err)
	}
	if granter.granted["u1"] != 2 {
		t.Fatalf("capped claim must not grant: %d", granter.granted["u1"])
	}
	if shares.claimed[ids[2]] {
		t.Fatalf("capped claim must leave the token unclaimed")
	}
}

func TestGetShareReturnsStoredPayload(t *testing.T) {
	shares := newFakeShareStore()
	svc := newTestService(shares, newFakeCounterStore(), newFakeGranter())
	ctx := context.Background()

	created, err := svc.CreateShare(ctx, "u1", "가짜 이별 통보", "요약")
	if err != nil {
		t.Fatalf("create share: %v", err)
	}

	record, err := svc.GetShare(ctx, created.ShareID)
	if err != nil {
		t.Fatalf("get share: %v", err)
	}
	if record.UserID != "u1" || record.Title != "가짜 이별 통보" {
		t.Fatalf("unexpected record: %+v", record)
	}

	if _, err := svc.GetShare(ctx, "missing"); !errors.Is(err, ErrInvalidShare) {
		t.Fatalf("missing share: expected ErrInvalidShare, got %v", err)
	}
}
