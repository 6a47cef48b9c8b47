package license

import (
	"context"
	"testing"
	"time"
)

type fakeStore struct {
	free      map[string]int
	tickets   map[string]int
	pass      map[string]PassRecord
	passSaves int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		free:    make(map[string]int),
		tickets: make(map[string]int),
		pass:    make(map[string]PassRecord),
	}
}

func (f *fakeStore) InitBalances(_ context.Context, userID string, freeCredits int) error {
	if _, ok := f.free[userID]; !ok {
		f.free[userID] = freeCredits
	}
	if _, ok := f.tickets[userID]; !ok {
		f.tickets[userID] = 0
	}
	if _, ok := f.pass[userID]; !ok {
		f.pass[userID] = PassRecord{Active: false}
	}
	return nil
}

func (f *fakeStore) FreeCredits(_ context.Context, userID string) (int, error) {
	return f.free[userID], nil
}

func (f *fakeStore) Tickets(_ context.Context, userID string) (int, error) {
	return f.tickets[userID], nil
}

func (f *fakeStore) AddTickets(_ context.Context, userID string, amount int) error {
	f.tickets[userID] += amount
	return nil
}

func (f *fakeStore) SpendTicket(_ context.Context, userID string) (bool, error) {
	if f.tickets[userID] > 0 {
		f.tickets[userID]--
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) SpendFreeCredit(_ context.Context, userID string) (bool, error) {
	if f.free[userID] > 0 {
		f.free[userID]--
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) LoadPass(_ context.Context, userID string) (PassRecord, bool, error) {
	pass, ok := f.pass[userID]
	return pass, ok, nil
}

func (f *fakeStore) SavePass(_ context.Context, userID string, pass PassRecord) error {
	f.pass[userID] = pass
	f.passSaves++
	return nil
}

func newTestService(store Store, at time.Time) *Service {
	svc := NewService(store, Config{FreeCredits: 2})
	svc.now = func() time.Time { return at }
	return svc
}

func TestBootstrapIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now())
	ctx := context.Background()

	first, err := svc.Bootstrap(ctx, "u1")
	if err != nil {
		t.Fatalf("bootstrap #1: %v", err)
	}
	if first.Free != 2 {
		t.Fatalf("unexpected free after first bootstrap: %d", first.Free)
	}

	if _, err := svc.ConsumeOne(ctx, "u1"); err != nil {
		t.Fatalf("consume: %v", err)
	}

	for i := 0; i < 3; i++ {
		status, err := svc.Bootstrap(ctx, "u1")
		if err != nil {
			t.Fatalf("bootstrap repeat #%d: %v", i+1, err)
		}
		if status.Free != 1 {
			t.Fatalf("repeat bootstrap re-granted credits: free=%d", status.Free)
		}
	}
}

func TestConsumeOrderTicketsBeforeFree(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now())
	ctx := context.Background()

	store.free["u1"] = 1
	store.tickets["u1"] = 1

	ok, err := svc.ConsumeOne(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("consume #1: ok=%v err=%v", ok, err)
	}
	if store.tickets["u1"] != 0 || store.free["u1"] != 1 {
		t.Fatalf("first consume must spend the ticket: tickets=%d free=%d", store.tickets["u1"], store.free["u1"])
	}

	ok, err = svc.ConsumeOne(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("consume #2: ok=%v err=%v", ok, err)
	}
	if store.free["u1"] != 0 {
		t.Fatalf("second consume must spend the free credit: free=%d", store.free["u1"])
	}

	ok, err = svc.ConsumeOne(ctx, "u1")
	if err != nil {
		t.Fatalf("consume #3: %v", err)
	}
	if ok {
		t.Fatalf("consume must fail when everything is exhausted")
	}
	if store.tickets["u1"] != 0 || store.free["u1"] != 0 {
		t.Fatalf("failed consume must not decrement: tickets=%d free=%d", store.tickets["u1"], store.free["u1"])
	}
}

func TestActivePassConsumesNothing(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	svc := newTestService(store, now)
	ctx := context.Background()

	until := now.Add(48 * time.Hour)
	store.pass["u1"] = PassRecord{Active: true, Until: &until}
	store.free["u1"] = 1
	store.tickets["u1"] = 1

	for i := 0; i < 5; i++ {
		ok, err := svc.ConsumeOne(ctx, "u1")
		if err != nil || !ok {
			t.Fatalf("consume with pass #%d: ok=%v err=%v", i+1, ok, err)
		}
	}

	if store.free["u1"] != 1 || store.tickets["u1"] != 1 {
		t.Fatalf("pass consumption must not touch balances: free=%d tickets=%d", store.free["u1"], store.tickets["u1"])
	}
}

func TestStatusClearsExpiredPass(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	svc := newTestService(store, now)
	ctx := context.Background()

	until := now.Add(-time.Hour)
	store.pass["u1"] = PassRecord{Active: true, Until: &until}
	store.tickets["u1"] = 1

	status, err := svc.Status(ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.PassActive {
		t.Fatalf("expired pass reported active")
	}
	if store.pass["u1"].Active || store.pass["u1"].Until != nil {
		t.Fatalf("expired pass record not cleared: %+v", store.pass["u1"])
	}

	ok, err := svc.ConsumeOne(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("consume after expiry: ok=%v err=%v", ok, err)
	}
	if store.tickets["u1"] != 0 {
		t.Fatalf("consume after expiry must fall through to tickets: %d", store.tickets["u1"])
	}
}

func TestGrantPassDaysKeepsFurtherExpiry(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	svc := newTestService(store, now)
	ctx := context.Background()

	farUntil := now.UTC().Add(30 * 24 * time.Hour)
	store.pass["u1"] = PassRecord{Active: true, Until: &farUntil}

	if err := svc.GrantPassDays(ctx, "u1", 7); err != nil {
		t.Fatalf("grant pass: %v", err)
	}

	got := store.pass["u1"]
	if !got.Active || got.Until == nil || !got.Until.Equal(farUntil) {
		t.Fatalf("shorter grant must not shrink an existing pass: %+v", got)
	}
}

func TestGrantPassDaysExtendsShorterPass(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	svc := newTestService(store, now)
	ctx := context.Background()

	nearUntil := now.UTC().Add(24 * time.Hour)
	store.pass["u1"] = PassRecord{Active: true, Until: &nearUntil}

	if err := svc.GrantPassDays(ctx, "u1", 7); err != nil {
		t.Fatalf("grant pass: %v", err)
	}

	got := store.pass["u1"]
	want := now.UTC().Add(7 * 24 * time.Hour)
	if !got.Active || got.Until == nil || !got.Until.Equal(want) {
		t.Fatalf("longer grant must extend the pass: got %+v want until %s", got, want)
	}
}

func TestGrantPassDaysNonPositiveDeactivates(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	svc := newTestService(store, now)
	ctx := context.Background()

	until := now.Add(24 * time.Hour)
	store.pass["u1"] = PassRecord{Active: true, Until: &until}

	if err := svc.GrantPassDays(ctx, "u1", 0); err != nil {
		t.Fatalf("deactivate pass: %v", err)
	}

	got := store.pass["u1"]
	if got.Active || got.Until != nil {
		t.Fatalf("non-positive days must deactivate the pass: %+v", got)
	}
}

func TestGrantTicketClampsNonPositiveAmount(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, time.Now())
	ctx := context.Background()

	if err := svc.GrantTicket(ctx, "u1", -5); err != nil {
		t.Fatalf("grant negative: %v", err)
	}
	if err := svc.GrantTicket(ctx, "u1", 0); err != nil {
		t.Fatalf("grant zero: %v", err)
	}
	if store.tickets["u1"] != 0 {
		t.Fatalf("non-positive grants must be no-ops: %d", store.tickets["u1"])
	}

	if err := svc.GrantTicket(ctx, "u1", 3); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if store.tickets["u1"] != 3 {
		t.Fatalf("unexpected ticket balance: %d", store.tickets["u1"])
	}
}

func TestOperationsRejectEmptyUserID(t *testing.T) {
	svc := newTestService(newFakeStore(), time.Now())
	ctx := context.Background()

	if _, err := svc.Bootstrap(ctx, ""); err != ErrValidation {
		t.Fatalf("bootstrap: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Status(ctx, ""); err != ErrValidation {
		t.Fatalf("status: expected ErrValidation, got %v", err)
	}
	if _, err := svc.ConsumeOne(ctx, ""); err != ErrValidation {
		t.Fatalf("consume: expected ErrValidation, got %v", err)
	}
}
