package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/google/uuid"
)

// StatusService answers status lookups by sms id.
type StatusService struct {
	history domain.HistoryRepository
	logger  *slog.Logger
}

func NewStatusService(history domain.HistoryRepository, logger *slog.Logger) *StatusService {
	return &StatusService{history: history, logger: logger.With("component", "status")}
}

// GetStatus returns ErrInvalidSmsID for malformed or unknown ids. The
// snapshot is optional: failed sends have none.
func (s *StatusService) GetStatus(ctx context.Context, smsID string) (*domain.StatusView, error) {
	if _, err := uuid.Parse(smsID); err != nil {
		return nil, domain.ErrInvalidSmsID
	}

	snapshot, err := s.history.GetSnapshotBySmsID(ctx, smsID)
	if err != nil && !errors.Is(err, domain.ErrInvalidSmsID) {
		return nil, fmt.Errorf("load snapshot %s: %w", smsID, err)
	}
	h, err := s.history.GetByID(ctx, smsID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSmsID) {
			return nil, err
		}
		return nil, fmt.Errorf("load history %s: %w", smsID, err)
	}

	view := &domain.StatusView{
		SmsID:          h.ID,
		SentStatus:     h.SentStatus,
		StatusMessage:  h.StatusMessage,
		DeliveryStatus: h.DeliveryStatus,
		MobileNumber:   h.MobileNumber,
		NumberOfSMS:    h.NumberOfSMS,
	}
	if snapshot != nil {
		view.MessageID = snapshot.MessageID
	}
	s.logger.DebugContext(ctx, "Status lookup", "sms_id", smsID, "sent_status", h.SentStatus)
	return view, nil
}
