package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/aradsms/sms_engine/internal/billing_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const creditColumns = `id, account_id, product_id, balance::text, used_balance::text, currency_code, created_at, updated_at`

type pgCreditRepository struct{}

// NewPgCreditRepository creates a CreditRepository for PostgreSQL. Every
// method runs on the Querier it is given, so callers choose the transaction.
func NewPgCreditRepository() domain.CreditRepository {
	return &pgCreditRepository{}
}

func (r *pgCreditRepository) GetByAccountAndProduct(ctx context.Context, q database.Querier, accountID int64, productID string) (*domain.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits WHERE account_id = $1 AND product_id = $2`
	return scanCredit(q.QueryRow(ctx, query, accountID, productID))
}

func (r *pgCreditRepository) LockByAccountAndProduct(ctx context.Context, q database.Querier, accountID int64, productID string) (*domain.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits WHERE account_id = $1 AND product_id = $2 FOR UPDATE`
	return scanCredit(q.QueryRow(ctx, query, accountID, productID))
}

func (r *pgCreditRepository) InsertIfAbsent(ctx context.Context, q database.Querier, c *domain.Credit) (bool, error) {
	query := `
		INSERT INTO credits (id, account_id, product_id, balance, used_balance, currency_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8)
		ON CONFLICT (account_id, product_id) DO NOTHING
	`
	tag, err := q.Exec(ctx, query,
		c.ID, c.AccountID, c.ProductID, c.Balance.String(), c.UsedBalance.String(), c.CurrencyCode, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgCreditRepository) UpdateBalances(ctx context.Context, q database.Querier, c *domain.Credit) error {
	query := `UPDATE credits SET balance = $1::numeric, used_balance = $2::numeric, updated_at = $3 WHERE id = $4`
	tag, err := q.Exec(ctx, query, c.Balance.String(), c.UsedBalance.String(), c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCreditNotFound
	}
	return nil
}

func scanCredit(row pgx.Row) (*domain.Credit, error) {
	var (
		c             domain.Credit
		balance, used string
	)
	err := row.Scan(&c.ID, &c.AccountID, &c.ProductID, &balance, &used, &c.CurrencyCode, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCreditNotFound
		}
		return nil, err
	}
	if c.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	if c.UsedBalance, err = decimal.NewFromString(used); err != nil {
		return nil, fmt.Errorf("parse used_balance: %w", err)
	}
	return &c, nil
}
