package app

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/aradsms/sms_engine/internal/billing_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/database"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type key struct {
	accountID int64
	productID string
}

// memCreditRepo is an in-memory CreditRepository. raceOnInsert simulates a
// concurrent writer that creates the row between the lock miss and the insert.
type memCreditRepo struct {
	mu           sync.Mutex
	rows         map[key]domain.Credit
	raceOnInsert *domain.Credit
	inserts      int
	updates      int
}

func newMemCreditRepo(rows ...domain.Credit) *memCreditRepo {
	r := &memCreditRepo{rows: map[key]domain.Credit{}}
	for _, c := range rows {
		r.rows[key{c.AccountID, c.ProductID}] = c
	}
	return r
}

func (r *memCreditRepo) get(accountID int64, productID string) (*domain.Credit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[key{accountID, productID}]
	if !ok {
		return nil, domain.ErrCreditNotFound
	}
	return &c, nil
}

func (r *memCreditRepo) GetByAccountAndProduct(_ context.Context, _ database.Querier, accountID int64, productID string) (*domain.Credit, error) {
	return r.get(accountID, productID)
}

func (r *memCreditRepo) LockByAccountAndProduct(_ context.Context, _ database.Querier, accountID int64, productID string) (*domain.Credit, error) {
	return r.get(accountID, productID)
}

func (r *memCreditRepo) InsertIfAbsent(_ context.Context, _ database.Querier, c *domain.Credit) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if r.raceOnInsert != nil {
		r.rows[key{r.raceOnInsert.AccountID, r.raceOnInsert.ProductID}] = *r.raceOnInsert
		r.raceOnInsert = nil
	}
	k := key{c.AccountID, c.ProductID}
	if _, exists := r.rows[k]; exists {
		return false, nil
	}
	r.rows[k] = *c
	return true, nil
}

func (r *memCreditRepo) UpdateBalances(_ context.Context, _ database.Querier, c *domain.Credit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	r.rows[key{c.AccountID, c.ProductID}] = *c
	return nil
}

type memRateRepo map[string]string

func (m memRateRepo) GetActiveRate(_ context.Context, code string) (*domain.ExchangeRate, error) {
	v, ok := m[code]
	if !ok {
		return nil, domain.ErrExchangeRateNotFound
	}
	return &domain.ExchangeRate{CurrencyCode: code, Rate: mustDecimal(v), IsActive: true}, nil
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, q database.Querier, tx *domain.CreditTransaction) error {
	args := m.Called(ctx, q, tx)
	return args.Error(0)
}
