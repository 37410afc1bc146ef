package subscription

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cyphera/cyphera-mpc-billing/internal/db"
)

// PostgresStore is a Store over the subscriptions table.
type PostgresStore struct {
	queries db.Querier
}

// NewPostgresStore returns a Store backed by queries.
func NewPostgresStore(queries db.Querier) *PostgresStore {
	return &PostgresStore{queries: queries}
}

func (s *PostgresStore) Get(ctx context.Context, accountID string) (Info, bool, error) {
	row, err := s.queries.GetSubscription(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Info{}, false, nil
		}
		return Info{}, false, err
	}
	info, err := infoFromRow(row)
	if err != nil {
		return Info{}, false, err
	}
	return info, true, nil
}

func (s *PostgresStore) Insert(ctx context.Context, accountID string, info Info) (bool, error) {
	due, err := dueToColumn(info.NextPaymentDue)
	if err != nil {
		return false, err
	}
	_, err = s.queries.InsertSubscription(ctx, db.InsertSubscriptionParams{
		AccountID:        accountID,
		NextPaymentDue:   due,
		UnsubscribeState: stateToColumn(info.UnsubscribeState),
	})
	if err != nil {
		// ON CONFLICT DO NOTHING returns no row for an existing account.
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *PostgresStore) Update(ctx context.Context, accountID string, info Info) error {
	due, err := dueToColumn(info.NextPaymentDue)
	if err != nil {
		return err
	}
	n, err := s.queries.UpdateSubscription(ctx, db.UpdateSubscriptionParams{
		AccountID:        accountID,
		NextPaymentDue:   due,
		UnsubscribeState: stateToColumn(info.UnsubscribeState),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotEnrolled
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, accountID string) (bool, error) {
	n, err := s.queries.DeleteSubscription(ctx, accountID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) List(ctx context.Context, offset int, limit *int) ([]Entry, error) {
	if offset > math.MaxInt32 || (limit != nil && *limit > math.MaxInt32) {
		return nil, fmt.Errorf("pagination out of range: offset=%d", offset)
	}
	// LIMIT NULL returns every row
	params := db.ListSubscriptionsParams{Offset: int32(offset)}
	if limit != nil {
		params.Limit = pgtype.Int4{Int32: int32(*limit), Valid: true}
	}

	rows, err := s.queries.ListSubscriptions(ctx, params)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		info, err := infoFromRow(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{AccountID: row.AccountID, Info: info})
	}
	return entries, nil
}

func infoFromRow(row db.Subscription) (Info, error) {
	if row.NextPaymentDue < 0 {
		return Info{}, fmt.Errorf("negative next_payment_due for %s", row.AccountID)
	}
	state := UnsubscribeNone
	if row.UnsubscribeState.Valid {
		state = UnsubscribeState(row.UnsubscribeState.String)
	}
	if !state.Valid() {
		return Info{}, fmt.Errorf("unknown unsubscribe_state %q for %s", row.UnsubscribeState.String, row.AccountID)
	}
	return Info{NextPaymentDue: uint64(row.NextPaymentDue), UnsubscribeState: state}, nil
}

func dueToColumn(due uint64) (int64, error) {
	if due > math.MaxInt64 {
		return 0, fmt.Errorf("next_payment_due %d exceeds column range", due)
	}
	return int64(due), nil
}

func stateToColumn(state UnsubscribeState) pgtype.Text {
	if state == UnsubscribeNone {
		return pgtype.Text{}
	}
	return pgtype.Text{String: string(state), Valid: true}
}
