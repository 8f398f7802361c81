package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aradsms/sms_engine/internal/platform/database"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgCatalogRepository struct {
	db     database.Querier
	logger *slog.Logger
}

func NewPgCatalogRepository(db database.Querier, logger *slog.Logger) domain.CatalogRepository {
	return &PgCatalogRepository{db: db, logger: logger.With("component", "catalog_repository_pg")}
}

func (r *PgCatalogRepository) GetActiveLabel(ctx context.Context, accountID int64, name string) (*domain.Label, error) {
	query := `
		SELECT id, account_id, name, product_id, COALESCE(country_code, ''), is_active
		FROM labels
		WHERE account_id = $1 AND name = $2 AND is_active = TRUE AND deleted_at IS NULL
		LIMIT 1
	`
	var l domain.Label
	err := r.db.QueryRow(ctx, query, accountID, name).
		Scan(&l.ID, &l.AccountID, &l.Name, &l.ProductID, &l.CountryCode, &l.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLabelNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to load label", "account_id", accountID, "label", name, "error", err)
		return nil, fmt.Errorf("get label: %w", err)
	}
	return &l, nil
}

func (r *PgCatalogRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, category, subtype, country_code, base_currency, outbound_price::text, service_provider_id, merchant_id
		FROM products
		WHERE id = $1
	`
	var (
		p     domain.Product
		price string
	)
	err := r.db.QueryRow(ctx, query, id).
		Scan(&p.ID, &p.Category, &p.Subtype, &p.CountryCode, &p.BaseCurrency, &price, &p.ProviderID, &p.MerchantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if p.OutboundPrice, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse outbound_price of %s: %w", id, err)
	}
	return &p, nil
}

func (r *PgCatalogRepository) ListDefaultProducts(ctx context.Context, accountID int64, subtypes []string, countryCode string) ([]domain.DefaultProduct, error) {
	query := `
		SELECT id, account_id, subtype, country_code, product_id, is_active, created_at
		FROM default_products
		WHERE account_id = $1 AND country_code = $2 AND is_active = TRUE
	`
	args := []any{accountID, countryCode}
	if len(subtypes) > 0 {
		query += ` AND subtype = ANY($3)`
		args = append(args, subtypes)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list default products: %w", err)
	}
	defer rows.Close()

	var out []domain.DefaultProduct
	for rows.Next() {
		var d domain.DefaultProduct
		if err := rows.Scan(&d.ID, &d.AccountID, &d.Subtype, &d.CountryCode, &d.ProductID, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan default product: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PgCatalogRepository) ListCountries(ctx context.Context) ([]domain.Country, error) {
	rows, err := r.db.Query(ctx, `SELECT iso_code, calling_code FROM countries ORDER BY is_primary DESC, iso_code`)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	var out []domain.Country
	for rows.Next() {
		var c domain.Country
		if err := rows.Scan(&c.ISOCode, &c.CallingCode); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const globalPriceColumns = `product_id, country_code, price::text, service_provider_id`

func (r *PgCatalogRepository) ListGlobalPrices(ctx context.Context) ([]domain.GlobalProductPrice, error) {
	rows, err := r.db.Query(ctx, `SELECT `+globalPriceColumns+` FROM global_product_prices`)
	if err != nil {
		return nil, fmt.Errorf("list global prices: %w", err)
	}
	defer rows.Close()

	var out []domain.GlobalProductPrice
	for rows.Next() {
		p, err := scanGlobalPrice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PgCatalogRepository) GetGlobalPrice(ctx context.Context, productID, countryCode string) (*domain.GlobalProductPrice, error) {
	query := `SELECT ` + globalPriceColumns + ` FROM global_product_prices WHERE product_id = $1 AND country_code = $2`
	p, err := scanGlobalPrice(r.db.QueryRow(ctx, query, productID, countryCode))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func scanGlobalPrice(row pgx.Row) (*domain.GlobalProductPrice, error) {
	var (
		p     domain.GlobalProductPrice
		price string
	)
	if err := row.Scan(&p.ProductID, &p.CountryCode, &price, &p.ProviderID); err != nil {
		return nil, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse global price: %w", err)
	}
	return &p, nil
}
