package postgres

import (
	"context"

	"github.com/aradsms/sms_engine/internal/billing_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/database"
)

type pgTransactionRepository struct{}

// NewPgTransactionRepository creates a TransactionRepository for PostgreSQL.
func NewPgTransactionRepository() domain.TransactionRepository {
	return &pgTransactionRepository{}
}

func (r *pgTransactionRepository) Create(ctx context.Context, q database.Querier, tx *domain.CreditTransaction) error {
	query := `
		INSERT INTO credit_transactions (id, credit_id, account_id, product_id, type, amount, request_currency,
		                                 applied_amount, balance_after, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8::numeric, $9::numeric, NULLIF($10, ''), $11)
	`
	_, err := q.Exec(ctx, query,
		tx.ID, tx.CreditID, tx.AccountID, tx.ProductID, string(tx.Type), tx.Amount.String(), tx.RequestCurrency,
		tx.AppliedAmount.String(), tx.BalanceAfter.String(), tx.Reference, tx.CreatedAt,
	)
	return err
}
