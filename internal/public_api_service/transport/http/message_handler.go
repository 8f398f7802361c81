package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aradsms/sms_engine/internal/sms_sending_service/app"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// SmsSubmitter queues send requests.
type SmsSubmitter interface {
	Submit(ctx context.Context, req domain.SendRequest) (*domain.SubmitResult, error)
}

// StatusReader looks up a sent message.
type StatusReader interface {
	GetStatus(ctx context.Context, smsID string) (*domain.StatusView, error)
}

type MessageHandler struct {
	submitter     SmsSubmitter
	status        StatusReader
	validate      *validator.Validate
	defaultSource int
	logger        *slog.Logger
}

func NewMessageHandler(submitter SmsSubmitter, status StatusReader, validate *validator.Validate, defaultSource int, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		submitter:     submitter,
		status:        status,
		validate:      validate,
		defaultSource: defaultSource,
		logger:        logger.With("handler", "message"),
	}
}

// RegisterRoutes registers message routes with the given router.
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sms/send", h.handleSend)
	r.Get("/sms/{smsID}", h.handleGetStatus)
}

func (h *MessageHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req domain.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "Failed to decode send request", "error", err)
		writeError(w, logger, http.StatusBadRequest, "INVALID-PARAMS")
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		logger.WarnContext(ctx, "Send request failed validation", "error", err)
		writeError(w, logger, http.StatusBadRequest, validationCode("", err))
		return
	}
	if req.Source == 0 {
		req.Source = h.defaultSource
	}

	res, err := h.submitter.Submit(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to submit sms", "account_id", req.AccountID, "error", err)
		code := errCodeDB
		if errors.Is(err, domain.ErrSmsWorker) {
			code = domain.ErrSmsWorker.Error()
		}
		writeError(w, logger, http.StatusInternalServerError, code)
		return
	}
	if res.Status != app.SubmitStatusSubmitted {
		writeJSON(w, logger, http.StatusServiceUnavailable, res)
		return
	}
	writeJSON(w, logger, http.StatusCreated, res)
}

func (h *MessageHandler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))
	smsID := chi.URLParam(r, "smsID")

	view, err := h.status.GetStatus(ctx, smsID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSmsID) {
			writeError(w, logger, http.StatusNotFound, domain.ErrInvalidSmsID.Error())
			return
		}
		logger.ErrorContext(ctx, "Failed to load sms status", "sms_id", smsID, "error", err)
		writeError(w, logger, http.StatusInternalServerError, errCodeDB)
		return
	}
	writeJSON(w, logger, http.StatusOK, view)
}
