package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aradsms/sms_engine/internal/inbound_processor_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/database"
	"github.com/jackc/pgx/v5"
)

type PgInboxRepository struct {
	db       database.Querier
	txRunner database.TxRunner
	logger   *slog.Logger
}

// NewPgInboxRepository creates the PostgreSQL InboxRepository.
func NewPgInboxRepository(db database.Querier, txRunner database.TxRunner, logger *slog.Logger) domain.InboxRepository {
	return &PgInboxRepository{db: db, txRunner: txRunner, logger: logger.With("component", "inbox_repository_pg")}
}

const insertIncomingSms = `
	INSERT INTO incoming_sms (
		id, account_id, product_id, short_code, keyword, sub_keyword, message, mobile_number,
		response, push_url_status, incoming_provider_id, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

func incomingSmsArgs(s *domain.IncomingSms) []any {
	return []any{
		s.ID, s.AccountID, s.ProductID, s.ShortCode, s.Keyword, s.SubKeyword, s.Message, s.MobileNumber,
		s.Response, s.PushURLStatus, s.IncomingProviderID, s.CreatedAt,
	}
}

func (r *PgInboxRepository) Create(ctx context.Context, sms *domain.IncomingSms) error {
	if _, err := r.db.Exec(ctx, insertIncomingSms, incomingSmsArgs(sms)...); err != nil {
		return fmt.Errorf("insert incoming_sms: %w", err)
	}
	return nil
}

func (r *PgInboxRepository) SavePart(ctx context.Context, p *domain.IncomingSmsPart) (bool, error) {
	query := `
		INSERT INTO incoming_sms_parts (
			id, account_id, product_id, incoming_provider_id, message_id, short_code, mobile_number,
			message, part_number, total_parts, reference_id, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (account_id, short_code, mobile_number, reference_id, part_number) WHERE status = 'pending' DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query,
		p.ID, p.AccountID, p.ProductID, p.IncomingProviderID, p.MessageID, p.ShortCode, p.MobileNumber,
		p.Message, p.PartNumber, p.TotalParts, p.ReferenceID, p.Status, p.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert incoming_sms_part: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgInboxRepository) PendingParts(ctx context.Context, key domain.PartGroupKey) ([]domain.IncomingSmsPart, error) {
	query := `
		SELECT id, account_id, product_id, incoming_provider_id, message_id, short_code, mobile_number,
			message, part_number, total_parts, reference_id, status, created_at
		FROM incoming_sms_parts
		WHERE account_id = $1 AND short_code = $2 AND mobile_number = $3 AND reference_id = $4
			AND status = 'pending' AND incoming_message_id IS NULL
		ORDER BY part_number, created_at
	`
	rows, err := r.db.Query(ctx, query, key.AccountID, key.ShortCode, key.MobileNumber, key.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("list pending parts: %w", err)
	}
	defer rows.Close()

	var out []domain.IncomingSmsPart
	for rows.Next() {
		var p domain.IncomingSmsPart
		if err := rows.Scan(&p.ID, &p.AccountID, &p.ProductID, &p.IncomingProviderID, &p.MessageID, &p.ShortCode, &p.MobileNumber,
			&p.Message, &p.PartNumber, &p.TotalParts, &p.ReferenceID, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan incoming_sms_part: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ConsumeGroup claims the pending fragments first; a concurrent completion
// blocks on the row locks and then finds nothing pending.
func (r *PgInboxRepository) ConsumeGroup(ctx context.Context, key domain.PartGroupKey, maxPart int, sms *domain.IncomingSms) error {
	return r.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE incoming_sms_parts
			SET status = 'consumed', incoming_message_id = $1, modified_at = now()
			WHERE account_id = $2 AND short_code = $3 AND mobile_number = $4 AND reference_id = $5
				AND part_number <= $6 AND status = 'pending' AND incoming_message_id IS NULL
		`
		tag, err := tx.Exec(ctx, query, sms.ID, key.AccountID, key.ShortCode, key.MobileNumber, key.ReferenceID, maxPart)
		if err != nil {
			return fmt.Errorf("consume incoming_sms_parts: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrGroupConsumed
		}
		if _, err := tx.Exec(ctx, insertIncomingSms, incomingSmsArgs(sms)...); err != nil {
			return fmt.Errorf("insert incoming_sms: %w", err)
		}
		r.logger.DebugContext(ctx, "Part group consumed", "incoming_sms_id", sms.ID, "parts", tag.RowsAffected())
		return nil
	})
}

func (r *PgInboxRepository) StaleGroups(ctx context.Context, from, to time.Time) ([]domain.StaleGroup, error) {
	query := `
		SELECT account_id, short_code, mobile_number, reference_id,
			min(incoming_provider_id), min(product_id), max(total_parts), min(created_at)
		FROM incoming_sms_parts
		WHERE created_at >= $1 AND created_at < $2 AND status = 'pending' AND incoming_message_id IS NULL
		GROUP BY account_id, short_code, mobile_number, reference_id
		ORDER BY min(created_at)
	`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list stale part groups: %w", err)
	}
	defer rows.Close()

	var out []domain.StaleGroup
	for rows.Next() {
		var g domain.StaleGroup
		if err := rows.Scan(&g.AccountID, &g.ShortCode, &g.MobileNumber, &g.ReferenceID,
			&g.IncomingProviderID, &g.ProductID, &g.TotalParts, &g.OldestPart); err != nil {
			return nil, fmt.Errorf("scan stale part group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *PgInboxRepository) UpdatePushStatus(ctx context.Context, id string, ok bool, response string) error {
	query := `UPDATE incoming_sms SET push_url_status = $1, push_url_response = $2, modified_at = now() WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, ok, response, id)
	if err != nil {
		return fmt.Errorf("update push status of %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIncomingSmsNotFound
	}
	return nil
}

const selectIncomingSms = `
	SELECT id, account_id, product_id, short_code, COALESCE(keyword, ''), COALESCE(sub_keyword, ''), message,
		mobile_number, COALESCE(response, ''), push_url_status, push_url_response, incoming_provider_id, created_at
	FROM incoming_sms
`

func (r *PgInboxRepository) ListUnpushedByIDs(ctx context.Context, ids []string) ([]domain.IncomingSms, error) {
	return r.listIncoming(ctx, selectIncomingSms+` WHERE id = ANY($1) AND push_url_status = FALSE ORDER BY created_at`, ids)
}

func (r *PgInboxRepository) ListUnpushedByAccounts(ctx context.Context, accountIDs []int64) ([]domain.IncomingSms, error) {
	return r.listIncoming(ctx, selectIncomingSms+` WHERE account_id = ANY($1) AND push_url_status = FALSE ORDER BY created_at`, accountIDs)
}

func (r *PgInboxRepository) ListUnpushedSince(ctx context.Context, since time.Time) ([]domain.IncomingSms, error) {
	return r.listIncoming(ctx, selectIncomingSms+` WHERE created_at > $1 AND push_url_status = FALSE ORDER BY created_at`, since)
}

func (r *PgInboxRepository) listIncoming(ctx context.Context, query string, arg any) ([]domain.IncomingSms, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list incoming_sms: %w", err)
	}
	defer rows.Close()

	var out []domain.IncomingSms
	for rows.Next() {
		var s domain.IncomingSms
		if err := rows.Scan(&s.ID, &s.AccountID, &s.ProductID, &s.ShortCode, &s.Keyword, &s.SubKeyword, &s.Message,
			&s.MobileNumber, &s.Response, &s.PushURLStatus, &s.PushURLResponse, &s.IncomingProviderID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan incoming_sms: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
