package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aradsms/sms_engine/internal/inbound_processor_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/messagebroker"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"

	openMarketProvider = "openmarket"
	longCodeMinDigits  = 7
)

// NumberNormalizer renormalizes long codes against the inbound number's
// country.
type NumberNormalizer interface {
	Normalize(number, callingCode string) (string, bool)
}

// route is where an incoming message is delivered.
type route struct {
	shortCode  string
	keyword    string
	subKeyword string
	config     *domain.IncomingConfig
}

type multipart struct {
	reference int
	total     int
	part      int
}

// Reassembler stores provider pushes, joins multi-part messages and queues
// the webhook push for every complete message.
type Reassembler struct {
	routing domain.RoutingRepository
	inbox   domain.InboxRepository
	numbers NumberNormalizer
	pushes  *pushQueue
	logger  *slog.Logger
	now     func() time.Time
}

func NewReassembler(
	routing domain.RoutingRepository,
	inbox domain.InboxRepository,
	numbers NumberNormalizer,
	tasks messagebroker.TaskEnqueuer,
	pushQueueName string,
	logger *slog.Logger,
) *Reassembler {
	logger = logger.With("component", "reassembler")
	return &Reassembler{
		routing: routing,
		inbox:   inbox,
		numbers: numbers,
		pushes:  newPushQueue(tasks, pushQueueName, logger),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SubmitPart handles one provider push. Fragments of an incomplete group are
// stored and acknowledged with AllPartsReceived false.
func (r *Reassembler) SubmitPart(ctx context.Context, providerName string, raw map[string]string) (*domain.SubmitResult, error) {
	timer := prometheus.NewTimer(inboundSMSProcessingDurationHist.WithLabelValues(providerName))
	defer timer.ObserveDuration()

	res, err := r.submit(ctx, providerName, raw)
	if err != nil {
		inboundSMSProcessedCounter.WithLabelValues(providerName, "error").Inc()
		r.logger.WarnContext(ctx, "Incoming sms rejected", "provider_name", providerName, "error", err)
		return nil, err
	}
	res.ProviderReply = FormatReply(providerName, res)
	return res, nil
}

func (r *Reassembler) submit(ctx context.Context, providerName string, raw map[string]string) (*domain.SubmitResult, error) {
	if len(raw) == 0 {
		return nil, domain.ErrInvalidParams
	}

	provider, err := r.routing.GetProviderByAPIName(ctx, providerName)
	if err != nil {
		return nil, fmt.Errorf("load incoming provider %s: %w", providerName, err)
	}
	if provider == nil {
		return nil, domain.ErrInvalidProvider
	}

	params := provider.Canonicalize(raw)
	if params[domain.FieldUDH] == "" && raw["UDH"] != "" {
		params[domain.FieldUDH] = raw["UDH"]
	}
	if err := requireFields(params); err != nil {
		return nil, err
	}

	mobile := numericNumber(params[domain.FieldMobileNumber])
	if mobile == "" {
		return nil, domain.ErrInvalidMobileNumber
	}
	shortCode := numericNumber(params[domain.FieldShortCode])
	message := params[domain.FieldMessage]

	rt, err := r.resolveRoute(ctx, shortCode, message, params[domain.FieldKeyword], params[domain.FieldSubKeyword])
	if err != nil {
		return nil, err
	}

	messageID := params[domain.FieldMessageID]
	if messageID == "" {
		messageID = "1"
	}
	logger := r.logger.With("provider_name", providerName, "short_code", rt.shortCode, "account_id", rt.config.AccountID)

	mp, err := detectMultipart(provider.APIName, params)
	if err != nil {
		return nil, err
	}

	sms := &domain.IncomingSms{
		ID:                 uuid.NewString(),
		AccountID:          rt.config.AccountID,
		ProductID:          rt.config.ProductID,
		ShortCode:          rt.shortCode,
		Keyword:            rt.keyword,
		SubKeyword:         rt.subKeyword,
		Message:            message,
		MobileNumber:       mobile,
		Response:           messageID,
		IncomingProviderID: provider.ID,
		CreatedAt:          r.now(),
	}

	if mp == nil {
		if err := r.inbox.Create(ctx, sms); err != nil {
			return nil, fmt.Errorf("store incoming sms: %w", err)
		}
		inboundSMSProcessedCounter.WithLabelValues(providerName, "stored").Inc()
		logger.InfoContext(ctx, "Incoming sms stored", "incoming_sms_id", sms.ID)
	} else {
		complete, err := r.collectPart(ctx, logger, providerName, provider.ID, mp, sms)
		if err != nil {
			return nil, err
		}
		if !complete {
			inboundSMSProcessedCounter.WithLabelValues(providerName, "pending").Inc()
			return pendingResult(), nil
		}
		inboundSMSProcessedCounter.WithLabelValues(providerName, "joined").Inc()
	}

	if r.pushes.enqueue(ctx, sms, rt.config) {
		pushEnqueuedCounter.WithLabelValues("realtime").Inc()
	}

	id := sms.ID
	return &domain.SubmitResult{
		Status:           StatusSuccess,
		AllPartsReceived: true,
		Response:         "Success",
		Message:          sms.Message,
		ID:               &id,
	}, nil
}

// collectPart saves the fragment and, once every part 1..total is pending,
// replaces sms.Message with the joined text and consumes the group.
func (r *Reassembler) collectPart(ctx context.Context, logger *slog.Logger, providerName, providerID string, mp *multipart, sms *domain.IncomingSms) (bool, error) {
	part := &domain.IncomingSmsPart{
		ID:                 uuid.NewString(),
		AccountID:          sms.AccountID,
		ProductID:          sms.ProductID,
		IncomingProviderID: providerID,
		MessageID:          sms.Response,
		ShortCode:          sms.ShortCode,
		MobileNumber:       sms.MobileNumber,
		Message:            sms.Message,
		PartNumber:         mp.part,
		TotalParts:         mp.total,
		ReferenceID:        mp.reference,
		Status:             domain.PartStatusPending,
		CreatedAt:          sms.CreatedAt,
	}
	logger = logger.With("reference_id", mp.reference, "part", mp.part, "total_parts", mp.total)

	inserted, err := r.inbox.SavePart(ctx, part)
	if err != nil {
		return false, fmt.Errorf("store incoming sms part: %w", err)
	}
	if !inserted {
		inboundPartsCounter.WithLabelValues(providerName, "duplicate").Inc()
		logger.InfoContext(ctx, "Duplicate fragment ignored")
	} else {
		inboundPartsCounter.WithLabelValues(providerName, "saved").Inc()
	}

	key := part.Key()
	pending, err := r.inbox.PendingParts(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load pending parts: %w", err)
	}
	joined, ok := joinParts(pending, mp.total)
	if !ok {
		logger.DebugContext(ctx, "Waiting for remaining fragments", "pending", len(pending))
		return false, nil
	}

	sms.Message = joined
	if err := r.inbox.ConsumeGroup(ctx, key, mp.total, sms); err != nil {
		if errors.Is(err, domain.ErrGroupConsumed) {
			logger.InfoContext(ctx, "Part group completed concurrently")
			return false, nil
		}
		return false, fmt.Errorf("consume part group: %w", err)
	}
	logger.InfoContext(ctx, "Multi-part sms joined", "incoming_sms_id", sms.ID)
	return true, nil
}

// CompleteStale force-joins a group that never completed. Missing
// fragments are skipped.
func (r *Reassembler) CompleteStale(ctx context.Context, g domain.StaleGroup) (*domain.IncomingSms, error) {
	pending, err := r.inbox.PendingParts(ctx, g.PartGroupKey)
	if err != nil {
		return nil, fmt.Errorf("load pending parts: %w", err)
	}
	if len(pending) == 0 {
		return nil, domain.ErrGroupConsumed
	}
	pending = slices.DeleteFunc(pending, func(p domain.IncomingSmsPart) bool { return p.PartNumber > p.TotalParts })
	if len(pending) == 0 {
		return nil, domain.ErrNoJoinableParts
	}
	joined, highest := joinAvailable(pending)

	rt, err := r.resolveRoute(ctx, g.ShortCode, joined, "", "")
	if err != nil {
		return nil, err
	}

	sms := &domain.IncomingSms{
		ID:                 uuid.NewString(),
		AccountID:          g.AccountID,
		ProductID:          g.ProductID,
		ShortCode:          g.ShortCode,
		Keyword:            rt.keyword,
		SubKeyword:         rt.subKeyword,
		Message:            joined,
		MobileNumber:       g.MobileNumber,
		Response:           pending[0].MessageID,
		IncomingProviderID: g.IncomingProviderID,
		CreatedAt:          r.now(),
	}
	if err := r.inbox.ConsumeGroup(ctx, g.PartGroupKey, max(highest, g.TotalParts), sms); err != nil {
		return nil, err
	}
	if r.pushes.enqueue(ctx, sms, rt.config) {
		pushEnqueuedCounter.WithLabelValues("sweep").Inc()
	}
	return sms, nil
}

// resolveRoute finds the inbound number and the config the message is
// routed to. Shared numbers take keyword and sub-keyword from the text.
func (r *Reassembler) resolveRoute(ctx context.Context, shortCode, message, keyword, subKeyword string) (*route, error) {
	if shortCode == "" {
		return nil, domain.ErrInvalidInboundNumber
	}
	inbound, err := r.routing.GetInboundNumber(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("load inbound number: %w", err)
	}
	if inbound == nil {
		return nil, domain.ErrInvalidInboundNumber
	}

	if len(shortCode) >= longCodeMinDigits {
		normalized, ok := r.numbers.Normalize(shortCode, inbound.CallingCode)
		if !ok {
			return nil, domain.ErrInvalidInboundNumber
		}
		if normalized != shortCode {
			shortCode = normalized
			if inbound, err = r.routing.GetInboundNumber(ctx, shortCode); err != nil {
				return nil, fmt.Errorf("load inbound number: %w", err)
			}
			if inbound == nil {
				return nil, domain.ErrInvalidInboundNumber
			}
		}
	}

	if inbound.IsShared {
		keyword, subKeyword = "", ""
		tokens := strings.Fields(message)
		if len(tokens) > 0 {
			keyword = tokens[0]
		}
		if len(tokens) > 1 {
			subKeyword = tokens[1]
		}
	}

	cfg, err := r.routing.FindConfig(ctx, shortCode, keyword, subKeyword)
	if err != nil {
		return nil, fmt.Errorf("load incoming config: %w", err)
	}
	if cfg == nil {
		return nil, domain.ErrIncomingConfigNotFound
	}
	return &route{shortCode: shortCode, keyword: keyword, subKeyword: subKeyword, config: cfg}, nil
}

func pendingResult() *domain.SubmitResult {
	return &domain.SubmitResult{Status: StatusSuccess, AllPartsReceived: false, Response: "Success"}
}

func requireFields(params map[string]string) error {
	for _, f := range []struct{ field, code string }{
		{domain.FieldMobileNumber, "MOBILENUMBER"},
		{domain.FieldShortCode, "SHORTCODE"},
		{domain.FieldMessage, "MESSAGE"},
	} {
		if strings.TrimSpace(params[f.field]) == "" {
			return &domain.RequiredFieldError{Field: f.code}
		}
	}
	return nil
}

// detectMultipart returns nil for single part requests.
func detectMultipart(providerAPIName string, params map[string]string) (*multipart, error) {
	if flag := params[domain.FieldIsMultiPart]; flag != "" && !strings.EqualFold(flag, "false") {
		total, err := strconv.Atoi(strings.TrimSpace(params[domain.FieldTotalParts]))
		if err != nil {
			return nil, domain.ErrInvalidMultipart
		}
		if total > 1 {
			part, err := strconv.Atoi(strings.TrimSpace(params[domain.FieldPartNumber]))
			if err != nil || part < 1 || part > total {
				return nil, domain.ErrInvalidMultipart
			}
			ref, err := strconv.Atoi(strings.TrimSpace(params[domain.FieldReferenceID]))
			if err != nil {
				return nil, domain.ErrInvalidMultipart
			}
			return &multipart{reference: ref, total: total, part: part}, nil
		}
	}

	if strings.EqualFold(providerAPIName, openMarketProvider) && params[domain.FieldUDH] != "" {
		ref, total, part, err := decodeUDH(params[domain.FieldUDH])
		if err != nil {
			return nil, err
		}
		return &multipart{reference: ref, total: total, part: part}, nil
	}
	return nil, nil
}

// joinParts concatenates fragments 1..total in order. ok is false while
// any of them is missing. The first stored fragment wins for a number.
func joinParts(parts []domain.IncomingSmsPart, total int) (string, bool) {
	byNumber := make(map[int]string, len(parts))
	for _, p := range parts {
		if _, seen := byNumber[p.PartNumber]; !seen {
			byNumber[p.PartNumber] = p.Message
		}
	}
	var b strings.Builder
	for i := 1; i <= total; i++ {
		text, ok := byNumber[i]
		if !ok {
			return "", false
		}
		b.WriteString(text)
	}
	return b.String(), true
}

// joinAvailable concatenates whatever fragments exist in part order and
// returns the highest part number seen.
func joinAvailable(parts []domain.IncomingSmsPart) (string, int) {
	sorted := make([]domain.IncomingSmsPart, len(parts))
	copy(sorted, parts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	var b strings.Builder
	highest, last := 0, 0
	for _, p := range sorted {
		if p.PartNumber == last {
			continue
		}
		last = p.PartNumber
		highest = p.PartNumber
		b.WriteString(p.Message)
	}
	return b.String(), highest
}

// numericNumber keeps the digits of number without leading zeros. An all
// zero number is "0".
func numericNumber(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
