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

type PgProviderRepository struct {
	db     database.Querier
	logger *slog.Logger
}

func NewPgProviderRepository(db database.Querier, logger *slog.Logger) domain.ProviderRepository {
	return &PgProviderRepository{db: db, logger: logger.With("component", "provider_repository_pg")}
}

// GetByID loads the provider and its params ordered by position.
func (r *PgProviderRepository) GetByID(ctx context.Context, id int64) (*domain.ServiceProvider, error) {
	query := `
		SELECT id, name, api_url, module_name, COALESCE(pack_type, '')
		FROM service_providers
		WHERE id = $1
	`
	var sp domain.ServiceProvider
	err := r.db.QueryRow(ctx, query, id).Scan(&sp.ID, &sp.Name, &sp.APIURL, &sp.ModuleName, &sp.PackType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProviderNotFound
		}
		return nil, fmt.Errorf("get provider %d: %w", id, err)
	}

	paramsQuery := `
		SELECT name, value, runtime_value, COALESCE(encoding, ''), in_query_string, is_mms_param, position
		FROM service_provider_params
		WHERE service_provider_id = $1
		ORDER BY position, name
	`
	rows, err := r.db.Query(ctx, paramsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("list params of provider %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.ServiceProviderParam
		if err := rows.Scan(&p.Name, &p.Value, &p.RuntimeValue, &p.Encoding, &p.InQueryString, &p.IsMMSParam, &p.Position); err != nil {
			return nil, fmt.Errorf("scan provider param: %w", err)
		}
		sp.Params = append(sp.Params, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.DebugContext(ctx, "Loaded provider", "provider_id", id, "module", sp.ModuleName, "params", len(sp.Params))
	return &sp, nil
}
