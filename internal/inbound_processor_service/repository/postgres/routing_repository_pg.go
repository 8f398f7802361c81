package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aradsms/sms_engine/internal/inbound_processor_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/database"
	"github.com/jackc/pgx/v5"
)

type PgRoutingRepository struct {
	db     database.Querier
	logger *slog.Logger
}

// NewPgRoutingRepository creates the PostgreSQL RoutingRepository.
func NewPgRoutingRepository(db database.Querier, logger *slog.Logger) domain.RoutingRepository {
	return &PgRoutingRepository{db: db, logger: logger.With("component", "routing_repository_pg")}
}

func (r *PgRoutingRepository) GetProviderByAPIName(ctx context.Context, apiName string) (*domain.IncomingProvider, error) {
	query := `
		SELECT id, name, api_name, COALESCE(http_push_method, '')
		FROM incoming_providers
		WHERE lower(api_name) = lower($1) AND deleted_at IS NULL
		LIMIT 1
	`
	return r.getProvider(ctx, query, apiName)
}

func (r *PgRoutingRepository) GetProviderByID(ctx context.Context, id string) (*domain.IncomingProvider, error) {
	query := `
		SELECT id, name, api_name, COALESCE(http_push_method, '')
		FROM incoming_providers
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.getProvider(ctx, query, id)
}

func (r *PgRoutingRepository) getProvider(ctx context.Context, query string, arg any) (*domain.IncomingProvider, error) {
	var p domain.IncomingProvider
	err := r.db.QueryRow(ctx, query, arg).Scan(&p.ID, &p.Name, &p.APIName, &p.HTTPPushMethod)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.InfoContext(ctx, "Incoming provider not found", "lookup", arg)
			return nil, nil
		}
		return nil, fmt.Errorf("get incoming provider: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT param_name, sm_param_name
		FROM incoming_provider_params
		WHERE incoming_provider_id = $1 AND deleted_at IS NULL
		ORDER BY param_name
	`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list params of incoming provider %s: %w", p.ID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var param domain.IncomingProviderParam
		if err := rows.Scan(&param.ParamName, &param.CanonicalName); err != nil {
			return nil, fmt.Errorf("scan incoming provider param: %w", err)
		}
		p.Params = append(p.Params, param)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgRoutingRepository) GetInboundNumber(ctx context.Context, shortCode string) (*domain.InboundNumber, error) {
	query := `
		SELECT n.id, n.short_code, n.country_code, COALESCE(c.calling_code, ''), n.incoming_provider_id, n.is_shared
		FROM inbound_numbers n
		LEFT JOIN countries c ON c.iso_code = n.country_code
		WHERE n.short_code = $1 AND n.deleted_at IS NULL
		LIMIT 1
	`
	var n domain.InboundNumber
	err := r.db.QueryRow(ctx, query, shortCode).
		Scan(&n.ID, &n.ShortCode, &n.CountryISO, &n.CallingCode, &n.IncomingProviderID, &n.IsShared)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.InfoContext(ctx, "Inbound number not found", "short_code", shortCode)
			return nil, nil
		}
		return nil, fmt.Errorf("get inbound number %s: %w", shortCode, err)
	}
	return &n, nil
}

const configColumns = `
	ic.id, ic.account_id, ic.incoming_product_id, ic.short_code, COALESCE(ic.keyword, ''), COALESCE(ic.sub_keyword, ''),
	COALESCE(ic.push_to_url, ''), COALESCE(ic.http_method, 'GET'), ic.country_code, COALESCE(n.is_shared, FALSE)
`

func (r *PgRoutingRepository) FindConfig(ctx context.Context, shortCode, keyword, subKeyword string) (*domain.IncomingConfig, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + configColumns + `
		FROM incoming_configs ic
		LEFT JOIN inbound_numbers n ON n.short_code = ic.short_code AND n.deleted_at IS NULL
		WHERE lower(ic.short_code) = lower($1) AND ic.deleted_at IS NULL`)
	args := []any{shortCode}
	if keyword != "" {
		args = append(args, keyword)
		fmt.Fprintf(&b, " AND lower(ic.keyword) = lower($%d)", len(args))
	}
	if subKeyword != "" {
		args = append(args, subKeyword)
		fmt.Fprintf(&b, " AND lower(ic.sub_keyword) = lower($%d)", len(args))
	}
	b.WriteString(" ORDER BY ic.created_at, ic.id LIMIT 1")

	c, err := scanConfig(r.db.QueryRow(ctx, b.String(), args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find incoming config: %w", err)
	}
	return c, nil
}

func (r *PgRoutingRepository) ListAccountConfigs(ctx context.Context, accountID int64) ([]domain.IncomingConfig, error) {
	query := `SELECT ` + configColumns + `
		FROM incoming_configs ic
		LEFT JOIN inbound_numbers n ON n.short_code = ic.short_code AND n.deleted_at IS NULL
		WHERE ic.account_id = $1 AND ic.deleted_at IS NULL
		ORDER BY ic.created_at, ic.id
	`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list incoming configs of account %d: %w", accountID, err)
	}
	defer rows.Close()

	var out []domain.IncomingConfig
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incoming config: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanConfig(row pgx.Row) (*domain.IncomingConfig, error) {
	var c domain.IncomingConfig
	err := row.Scan(&c.ID, &c.AccountID, &c.ProductID, &c.ShortCode, &c.Keyword, &c.SubKeyword,
		&c.PushToURL, &c.HTTPMethod, &c.CountryISO, &c.SharedNumber)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
