package subscription

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphera/cyphera-mpc-billing/internal/near"
)

const testPeriod = uint64(60)

type fakeClock struct{ now uint64 }

func (c *fakeClock) Now() uint64 { return c.now }

func newTestLedger(t *testing.T) (*Ledger, *fakeClock, *MemoryStore) {
	t.Helper()
	clock := &fakeClock{}
	store := NewMemoryStore()
	ledger := NewLedger(store, LedgerConfig{
		PeriodLength: testPeriod,
		Price:        near.NewBalance(10),
		Clock:        clock.Now,
	})
	return ledger, clock, store
}

func TestLedger_Enroll(t *testing.T) {
	ctx := context.Background()
	ledger, clock, store := newTestLedger(t)

	clock.now = 5
	info, err := ledger.Enroll(ctx, "alice.near")
	require.NoError(t, err)
	assert.Equal(t, Info{NextPaymentDue: 65, UnsubscribeState: UnsubscribeNone}, info)

	t.Run("already enrolled leaves entry unchanged", func(t *testing.T) {
		clock.now = 30
		_, err := ledger.Enroll(ctx, "alice.near")
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)

		stored, ok, err := store.Get(ctx, "alice.near")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint64(65), stored.NextPaymentDue)
	})
}

func TestLedger_Pay(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		enroll    bool
		payAt     uint64
		amount    near.Balance
		wantDue   uint64
		wantError error
	}{
		{name: "exactly on due date", enroll: true, payAt: 60, amount: near.NewBalance(10), wantDue: 120},
		{name: "long after due date", enroll: true, payAt: 1_000, amount: near.NewBalance(10), wantDue: 120},
		{name: "before due date", enroll: true, payAt: 59, amount: near.NewBalance(10), wantError: ErrNotDue},
		{name: "wrong deposit", enroll: true, payAt: 60, amount: near.NewBalance(9), wantError: ErrWrongDeposit},
		{name: "not enrolled", payAt: 60, amount: near.NewBalance(10), wantError: ErrNotEnrolled},
		{name: "wrong deposit checked first", payAt: 60, amount: near.NewBalance(11), wantError: ErrWrongDeposit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, clock, _ := newTestLedger(t)
			if tt.enroll {
				_, err := ledger.Enroll(ctx, "bob.near")
				require.NoError(t, err)
			}

			clock.now = tt.payAt
			info, err := ledger.Pay(ctx, "bob.near", tt.amount)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDue, info.NextPaymentDue)
		})
	}
}

func TestLedger_DueDateIsMonotonic(t *testing.T) {
	ctx := context.Background()
	ledger, clock, _ := newTestLedger(t)

	_, err := ledger.Enroll(ctx, "carol.near")
	require.NoError(t, err)

	last := uint64(testPeriod)
	for i := 0; i < 5; i++ {
		clock.now = last + uint64(i)*7
		info, err := ledger.Pay(ctx, "carol.near", near.NewBalance(10))
		require.NoError(t, err)
		assert.Equal(t, last+testPeriod, info.NextPaymentDue)
		last = info.NextPaymentDue
	}
}

func TestLedger_RequestUnsubscribe(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		at        uint64
		wantState UnsubscribeState
	}{
		{name: "before due date", at: 10, wantState: UnsubscribePendingNextPeriod},
		{name: "on due date", at: 60, wantState: UnsubscribePendingNextPeriod},
		{name: "past due date", at: 61, wantState: UnsubscribeImmediate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, clock, _ := newTestLedger(t)
			_, err := ledger.Enroll(ctx, "dave.near")
			require.NoError(t, err)

			clock.now = tt.at
			info, err := ledger.RequestUnsubscribe(ctx, "dave.near")
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, info.UnsubscribeState)

			_, err = ledger.RequestUnsubscribe(ctx, "dave.near")
			assert.ErrorIs(t, err, ErrAlreadyUnsubscribing)
		})
	}

	t.Run("not enrolled", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)
		_, err := ledger.RequestUnsubscribe(ctx, "nobody.near")
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})
}

func TestLedger_PayAfterPendingUnsubscribeBecomesImmediate(t *testing.T) {
	ctx := context.Background()
	ledger, clock, _ := newTestLedger(t)

	_, err := ledger.Enroll(ctx, "erin.near")
	require.NoError(t, err)

	clock.now = 10
	_, err = ledger.RequestUnsubscribe(ctx, "erin.near")
	require.NoError(t, err)

	clock.now = 65
	info, err := ledger.Pay(ctx, "erin.near", near.NewBalance(10))
	require.NoError(t, err)
	assert.Equal(t, UnsubscribeImmediate, info.UnsubscribeState)
	assert.Equal(t, uint64(120), info.NextPaymentDue)
}

func TestLedger_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("not enrolled", func(t *testing.T) {
		ledger, _, _ := newTestLedger(t)
		_, err := ledger.Cancel(ctx, "ghost.near")
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})

	t.Run("active account starts unsubscribe", func(t *testing.T) {
		ledger, clock, _ := newTestLedger(t)
		_, err := ledger.Enroll(ctx, "frank.near")
		require.NoError(t, err)

		clock.now = 20
		removed, err := ledger.Cancel(ctx, "frank.near")
		require.NoError(t, err)
		assert.False(t, removed)

		entry, err := ledger.Get(ctx, "frank.near")
		require.NoError(t, err)
		assert.Equal(t, UnsubscribePendingNextPeriod, entry.UnsubscribeState)

		_, err = ledger.Cancel(ctx, "frank.near")
		assert.ErrorIs(t, err, ErrAlreadyUnsubscribing)
	})

	t.Run("immediate account is removed", func(t *testing.T) {
		ledger, clock, _ := newTestLedger(t)
		_, err := ledger.Enroll(ctx, "grace.near")
		require.NoError(t, err)

		clock.now = 100
		_, err = ledger.RequestUnsubscribe(ctx, "grace.near")
		require.NoError(t, err)

		removed, err := ledger.Cancel(ctx, "grace.near")
		require.NoError(t, err)
		assert.True(t, removed)

		_, err = ledger.Get(ctx, "grace.near")
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})
}

func TestLedger_ChargeEligibility(t *testing.T) {
	ctx := context.Background()
	ledger, clock, _ := newTestLedger(t)

	_, err := ledger.ChargeEligibility(ctx, "heidi.near")
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, err = ledger.Enroll(ctx, "heidi.near")
	require.NoError(t, err)

	clock.now = 60
	_, err = ledger.ChargeEligibility(ctx, "heidi.near")
	assert.ErrorIs(t, err, ErrNotDue)

	clock.now = 61
	eligibility, err := ledger.ChargeEligibility(ctx, "heidi.near")
	require.NoError(t, err)
	assert.Equal(t, EligibilityCharge, eligibility)

	t.Run("immediate skips regardless of due date", func(t *testing.T) {
		clock.now = 10
		_, err := ledger.Enroll(ctx, "ivan.near")
		require.NoError(t, err)
		_, err = ledger.RequestUnsubscribe(ctx, "ivan.near")
		require.NoError(t, err)

		clock.now = 75
		_, err = ledger.Pay(ctx, "ivan.near", near.NewBalance(10))
		require.NoError(t, err)

		eligibility, err := ledger.ChargeEligibility(ctx, "ivan.near")
		require.NoError(t, err)
		assert.Equal(t, EligibilitySkipAndRemove, eligibility)

		removed, err := ledger.RemoveIfImmediate(ctx, "ivan.near")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = ledger.RemoveIfImmediate(ctx, "ivan.near")
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestLedger_List(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newTestLedger(t)

	for _, id := range []string{"a.near", "b.near", "c.near", "d.near"} {
		_, err := ledger.Enroll(ctx, id)
		require.NoError(t, err)
	}

	intPtr := func(n int) *int { return &n }

	tests := []struct {
		name   string
		offset int
		limit  *int
		want   []string
	}{
		{name: "all", want: []string{"a.near", "b.near", "c.near", "d.near"}},
		{name: "first page", limit: intPtr(2), want: []string{"a.near", "b.near"}},
		{name: "second page", offset: 2, limit: intPtr(2), want: []string{"c.near", "d.near"}},
		{name: "limit past end", offset: 3, limit: intPtr(5), want: []string{"d.near"}},
		{name: "zero limit", limit: intPtr(0), want: []string{}},
		{name: "offset past end", offset: 10, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := ledger.List(ctx, tt.offset, tt.limit)
			require.NoError(t, err)
			ids := make([]string, 0, len(entries))
			for _, e := range entries {
				ids = append(ids, e.AccountID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := ledger.List(ctx, -1, nil)
	assert.Error(t, err)
	_, err = ledger.List(ctx, 0, intPtr(-1))
	assert.Error(t, err)
}

func TestLedger_LockTableDrains(t *testing.T) {
	ctx := context.Background()
	ledger, clock, store := newTestLedger(t)

	for _, id := range []string{"a.near", "b.near", "c.near"} {
		_, err := ledger.Enroll(ctx, id)
		require.NoError(t, err)
	}
	clock.now = 100
	for _, id := range []string{"a.near", "b.near", "c.near"} {
		removed, err := ledger.Cancel(ctx, id)
		require.NoError(t, err)
		assert.False(t, removed)
		removed, err = ledger.Cancel(ctx, id)
		require.NoError(t, err)
		assert.True(t, removed)
	}
	assert.Zero(t, ledger.locks.Size())

	_, err := ledger.Enroll(ctx, "d.near")
	require.NoError(t, err)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.RequestUnsubscribe(ctx, "d.near")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrAlreadyUnsubscribing)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Zero(t, ledger.locks.Size())

	stored, ok, err := store.Get(ctx, "d.near")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, UnsubscribeNone, stored.UnsubscribeState)
}
