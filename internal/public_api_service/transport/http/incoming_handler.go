package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	deliverydomain "github.com/aradsms/sms_engine/internal/delivery_retrieval_service/domain"
	inboundapp "github.com/aradsms/sms_engine/internal/inbound_processor_service/app"
	inbounddomain "github.com/aradsms/sms_engine/internal/inbound_processor_service/domain"
	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const maxCallbackBody = 1 << 20

// IncomingReceiver stores one provider callback for an inbound message.
type IncomingReceiver interface {
	SubmitPart(ctx context.Context, providerName string, raw map[string]string) (*inbounddomain.SubmitResult, error)
}

// IncomingRepusher queues stored incoming messages for another push.
type IncomingRepusher interface {
	RepushByIDs(ctx context.Context, ids []string) (int, error)
	RepushByAccountIDs(ctx context.Context, accountIDs []int64) (int, error)
}

// DeliveryReportHandler records provider delivery reports.
type DeliveryReportHandler interface {
	HandleCallback(ctx context.Context, providerName string, cb deliverydomain.ProviderCallback) (*deliverydomain.DeliveryReport, error)
}

// IncomingHandler serves the provider callbacks.
type IncomingHandler struct {
	receiver IncomingReceiver
	repusher IncomingRepusher
	dlr      DeliveryReportHandler
	validate *validator.Validate
	logger   *slog.Logger
}

func NewIncomingHandler(receiver IncomingReceiver, repusher IncomingRepusher, dlr DeliveryReportHandler, validate *validator.Validate, logger *slog.Logger) *IncomingHandler {
	return &IncomingHandler{
		receiver: receiver,
		repusher: repusher,
		dlr:      dlr,
		validate: validate,
		logger:   logger.With("handler", "incoming"),
	}
}

func (h *IncomingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/incoming/{provider_name}", h.HandleIncomingSMSCallback)
	r.Post("/incoming/{provider_name}", h.HandleIncomingSMSCallback)
	r.Post("/repushsms", h.HandleRepush)
	r.Post("/dlr/{provider_name}", h.HandleDLRCallback)
}

// HandleIncomingSMSCallback stores an inbound message or part and answers
// with the acknowledgement the provider expects.
func (h *IncomingHandler) HandleIncomingSMSCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerName := chi.URLParam(r, "provider_name")
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx), "provider_name", providerName)

	params, err := callbackParams(r)
	if err != nil {
		logger.WarnContext(ctx, "Failed to read incoming sms callback", "error", err)
		writeError(w, logger, http.StatusBadRequest, inbounddomain.ErrInvalidParams.Error())
		return
	}
	logger.DebugContext(ctx, "Incoming sms callback", "params", params)

	res, err := h.receiver.SubmitPart(ctx, providerName, params)
	if err != nil {
		if code, ok := inbounddomain.ClientErrorCode(err); ok {
			writeError(w, logger, http.StatusBadRequest, code)
			return
		}
		logger.ErrorContext(ctx, "Failed to store incoming sms", "error", err)
		writeError(w, logger, http.StatusInternalServerError, errCodeDB)
		return
	}

	w.Header().Set("Content-Type", inboundapp.ReplyContentType(providerName))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, res.ProviderReply); err != nil {
		logger.WarnContext(ctx, "Failed to write provider reply", "error", err)
	}
}

// HandleRepush queues stored incoming messages by id and by account.
func (h *IncomingHandler) HandleRepush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req RepushRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxCallbackBody)).Decode(&req); err != nil {
		logger.WarnContext(ctx, "Failed to decode repush request", "error", err)
		writeError(w, logger, http.StatusBadRequest, inbounddomain.ErrEmptyRepushList.Error())
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		writeError(w, logger, http.StatusBadRequest, validationCode("REPUSH-", err))
		return
	}
	if len(req.SmsList) == 0 && len(req.AccountList) == 0 {
		writeError(w, logger, http.StatusBadRequest, inbounddomain.ErrEmptyRepushList.Error())
		return
	}

	queued := 0
	if len(req.SmsList) > 0 {
		n, err := h.repusher.RepushByIDs(ctx, req.SmsList)
		if err != nil {
			h.repushFailed(ctx, w, logger, err)
			return
		}
		queued += n
	}
	if len(req.AccountList) > 0 {
		n, err := h.repusher.RepushByAccountIDs(ctx, req.AccountList)
		if err != nil {
			h.repushFailed(ctx, w, logger, err)
			return
		}
		queued += n
	}
	logger.InfoContext(ctx, "Repush queued", "sms_ids", len(req.SmsList), "accounts", len(req.AccountList), "queued", queued)
	writeJSON(w, logger, http.StatusOK, RepushResponse{Message: "Messages pushed successfully", Queued: queued})
}

func (h *IncomingHandler) repushFailed(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	if code, ok := inbounddomain.ClientErrorCode(err); ok {
		writeError(w, logger, http.StatusBadRequest, code)
		return
	}
	logger.ErrorContext(ctx, "Repush failed", "error", err)
	writeError(w, logger, http.StatusInternalServerError, errCodeDB)
}

// HandleDLRCallback records a provider delivery report.
func (h *IncomingHandler) HandleDLRCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerName := chi.URLParam(r, "provider_name")
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx), "provider_name", providerName)

	params, err := callbackParams(r)
	if err != nil {
		logger.WarnContext(ctx, "Failed to read delivery report", "error", err)
		writeError(w, logger, http.StatusBadRequest, deliverydomain.ErrInvalidDLR.Error())
		return
	}
	cb := deliverydomain.ProviderCallback{
		SmsID:     params["sms_id"],
		MessageID: params["message_id"],
		Status:    params["status"],
		ErrorCode: params["error_code"],
	}
	if raw := params["timestamp"]; raw != "" {
		ts, err := parseCallbackTime(raw)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "DLR-INVALID-TIMESTAMP")
			return
		}
		cb.Timestamp = &ts
	}
	if err := h.validate.StructCtx(ctx, cb); err != nil {
		writeError(w, logger, http.StatusBadRequest, validationCode("DLR-", err))
		return
	}

	report, err := h.dlr.HandleCallback(ctx, providerName, cb)
	if err != nil {
		if deliverydomain.IsClientError(err) {
			writeError(w, logger, http.StatusBadRequest, err.Error())
			return
		}
		logger.ErrorContext(ctx, "Failed to record delivery report", "error", err)
		writeError(w, logger, http.StatusInternalServerError, errCodeDB)
		return
	}
	writeJSON(w, logger, http.StatusOK, DLRResponse{SmsID: report.SmsID, DeliveryStatus: report.Status.String()})
}

// callbackParams merges query args, form fields and a JSON object body, in
// increasing precedence, into flat strings.
func callbackParams(r *http.Request) (map[string]string, error) {
	params := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	if r.Body == nil || r.Method == http.MethodGet {
		return params, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if len(bytes.TrimSpace(body)) == 0 {
			return params, nil
		}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		for k, v := range obj {
			if s, ok := flatten(v); ok {
				params[k] = s
			}
		}
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err := r.ParseMultipartForm(maxCallbackBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		for k, v := range r.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
	}
	return params, nil
}

func flatten(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

var callbackTimeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.000", "2006-01-02 15:04:05"}

func parseCallbackTime(raw string) (time.Time, error) {
	var err error
	for _, layout := range callbackTimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
