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

type pgExchangeRateRepository struct {
	db database.Querier
}

// NewPgExchangeRateRepository creates an ExchangeRateRepository for PostgreSQL.
func NewPgExchangeRateRepository(db database.Querier) domain.ExchangeRateRepository {
	return &pgExchangeRateRepository{db: db}
}

func (r *pgExchangeRateRepository) GetActiveRate(ctx context.Context, currencyCode string) (*domain.ExchangeRate, error) {
	var (
		rate domain.ExchangeRate
		raw  string
	)
	query := `SELECT currency_code, rate::text, is_active, updated_at FROM exchange_rates WHERE currency_code = $1 AND is_active = TRUE`
	err := r.db.QueryRow(ctx, query, currencyCode).Scan(&rate.CurrencyCode, &raw, &rate.IsActive, &rate.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExchangeRateNotFound
		}
		return nil, err
	}
	if rate.Rate, err = decimal.NewFromString(raw); err != nil {
		return nil, fmt.Errorf("parse rate for %s: %w", currencyCode, err)
	}
	return &rate, nil
}
