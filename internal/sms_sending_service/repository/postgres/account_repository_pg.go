package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aradsms/sms_engine/internal/platform/database"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/jackc/pgx/v5"
)

// PgAccountRepository reads accounts, their customer and per-product
// account settings.
type PgAccountRepository struct {
	db     database.Querier
	logger *slog.Logger
}

func NewPgAccountRepository(db database.Querier, logger *slog.Logger) *PgAccountRepository {
	return &PgAccountRepository{db: db, logger: logger.With("component", "account_repository_pg")}
}

func (r *PgAccountRepository) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	query := `
		SELECT a.id, a.customer_id, c.country_code, a.api_access, a.mms_enabled, a.is_test_account, a.deleted_at
		FROM accounts a
		JOIN customers c ON c.id = a.customer_id
		WHERE a.id = $1
	`
	var a domain.Account
	err := r.db.QueryRow(ctx, query, id).
		Scan(&a.ID, &a.CustomerID, &a.CountryCode, &a.APIAccess, &a.MMSEnabled, &a.IsTestAccount, &a.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}
	return &a, nil
}

func (r *PgAccountRepository) GetCustomerCountry(ctx context.Context, accountID int64) (string, error) {
	a, err := r.GetAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	return a.CountryCode, nil
}

// HasAPIAccess is false for deleted accounts.
func (r *PgAccountRepository) HasAPIAccess(ctx context.Context, accountID int64) (bool, error) {
	a, err := r.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return a.APIAccess && a.DeletedAt == nil, nil
}

// GetDeliveryURL returns the account's delivery report URL for productID,
// or "" when none is configured.
func (r *PgAccountRepository) GetDeliveryURL(ctx context.Context, accountID int64, productID string) (string, error) {
	query := `
		SELECT COALESCE(delivery_report_url, '')
		FROM account_info
		WHERE account_id = $1 AND product_id = $2
		LIMIT 1
	`
	var url string
	err := r.db.QueryRow(ctx, query, accountID, productID).Scan(&url)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		r.logger.ErrorContext(ctx, "Failed to load delivery url", "account_id", accountID, "product_id", productID, "error", err)
		return "", fmt.Errorf("get delivery url: %w", err)
	}
	return url, nil
}
