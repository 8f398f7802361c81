package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	billingapp "github.com/aradsms/sms_engine/internal/billing_service/app"
	"github.com/aradsms/sms_engine/internal/platform/messagebroker"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/provider"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stage is a step of the dispatch state machine.
type Stage string

const (
	StageResolving   Stage = "resolving"
	StageGating      Stage = "gating"
	StageDispatching Stage = "dispatching"
	StageBilling     Stage = "billing"
	StageLogging     Stage = "logging"
	StageDone        Stage = "done"
)

const dlrTimestampLayout = "2006-01-02 15:04:05.000"

// Resolver picks the route of a send.
type Resolver interface {
	Resolve(ctx context.Context, req ResolveRequest) (*domain.ResolvedProduct, error)
}

// AdapterResolver returns the adapter for a provider's module.
type AdapterResolver interface {
	Resolve(sp *domain.ServiceProvider) (provider.Adapter, error)
}

// Ledger charges accounts for sent messages.
type Ledger interface {
	Debit(ctx context.Context, req billingapp.DebitRequest) (decimal.Decimal, error)
}

type DispatcherConfig struct {
	EnforceBalance   bool
	ChargeableErrors []string
	SendDLRErrors    []string
	DLRQueue         string
	DefaultSource    int
}

// Dispatcher runs one send job through resolve, gate, send, bill and log.
type Dispatcher struct {
	resolver     Resolver
	accounts     domain.AccountRepository
	adapters     AdapterResolver
	ledger       Ledger
	history      domain.HistoryRepository
	deliveryURLs domain.DeliveryURLResolver
	tasks        messagebroker.TaskEnqueuer
	numbers      NumberNormalizer
	cfg          DispatcherConfig
	logger       *slog.Logger
	now          func() time.Time
}

func NewDispatcher(
	resolver Resolver,
	accounts domain.AccountRepository,
	adapters AdapterResolver,
	ledger Ledger,
	history domain.HistoryRepository,
	deliveryURLs domain.DeliveryURLResolver,
	tasks messagebroker.TaskEnqueuer,
	numbers NumberNormalizer,
	cfg DispatcherConfig,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		resolver:     resolver,
		accounts:     accounts,
		adapters:     adapters,
		ledger:       ledger,
		history:      history,
		deliveryURLs: deliveryURLs,
		tasks:        tasks,
		numbers:      numbers,
		cfg:          cfg,
		logger:       logger.With("component", "dispatcher"),
		now:          time.Now,
	}
}

// dispatchRun is the mutable state of one job.
type dispatchRun struct {
	job          domain.SendJob
	stage        Stage
	mobile       string
	senderID     string
	source       int
	text         FormattedText
	resolved     *domain.ResolvedProduct
	adapterParts int
}

func (r *dispatchRun) providerName() string {
	if r.resolved == nil || r.resolved.Provider == nil {
		return "none"
	}
	return r.resolved.Provider.Name
}

func (r *dispatchRun) parts() int {
	return max(r.text.Parts, r.adapterParts, 1)
}

// Process runs job to a terminal state and records it in history exactly
// once. The returned error is non-nil only when the history write fails.
func (d *Dispatcher) Process(ctx context.Context, job domain.SendJob) (*domain.DispatchOutcome, error) {
	start := time.Now()
	run := &dispatchRun{
		job:      job,
		stage:    StageResolving,
		mobile:   FormatMobile(job.MobileNumber),
		senderID: TruncateSenderID(job.SenderID),
		source:   job.Source,
	}
	if run.source == 0 {
		run.source = d.cfg.DefaultSource
	}
	logger := d.logger.With("sms_id", job.SmsID, "account_id", job.AccountID)

	result, err := d.dispatch(ctx, run)
	status := domain.SentStatusSuccess
	if err != nil {
		reason := failureReason(err)
		if IsRoutingError(err) || errors.Is(err, domain.ErrInsufficientBalance) || errors.Is(err, domain.ErrAPIDisabled) {
			logger.InfoContext(ctx, "Send rejected", "stage", run.stage, "reason", reason)
		} else {
			logger.ErrorContext(ctx, "Send failed", "stage", run.stage, "error", err)
		}
		result = provider.Failure(run.mobile, reason)
		status = "failed_" + string(run.stage)
	} else if !result.OK {
		logger.WarnContext(ctx, "Provider rejected message", "provider", run.providerName(), "reason", result.Reason)
		status = "failed_" + string(StageDispatching)
	}

	credits := decimal.Zero
	if run.resolved != nil && (result.OK || slices.Contains(d.cfg.ChargeableErrors, result.Reason)) {
		run.stage = StageBilling
		credits = d.bill(ctx, run, logger)
	}

	run.stage = StageLogging
	history, snapshot := d.buildHistory(run, result, credits)
	if err := d.history.Create(ctx, history, snapshot); err != nil {
		smsSendingProcessedCounter.WithLabelValues(run.providerName(), "failed_logging").Inc()
		return nil, fmt.Errorf("log sms history %s: %w", job.SmsID, err)
	}

	outcome := &domain.DispatchOutcome{
		SmsID:         job.SmsID,
		SentStatus:    history.SentStatus,
		ResponseID:    history.ResponseID,
		StatusMessage: history.StatusMessage,
		Parts:         history.NumberOfSMS,
		Credits:       credits,
	}
	if !result.OK && slices.Contains(d.cfg.SendDLRErrors, result.Reason) {
		outcome.DLRQueued = d.pushFailedDLR(ctx, run, result.Reason, logger)
	}

	run.stage = StageDone
	smsSendingProcessedCounter.WithLabelValues(run.providerName(), status).Inc()
	smsSendingProcessingDurationHist.WithLabelValues(run.providerName()).Observe(time.Since(start).Seconds())
	return outcome, nil
}

// dispatch covers resolving, gating and dispatching. An error return means
// the job failed in run.stage.
func (d *Dispatcher) dispatch(ctx context.Context, run *dispatchRun) (provider.ParsedResult, error) {
	text, err := FormatText(run.job.SmsText, domain.EncodingFromName(run.job.Encoding))
	if err != nil {
		return provider.ParsedResult{}, err
	}
	run.text = text

	var callingCode string
	if strings.HasPrefix(run.mobile, "+") {
		callingCode, _ = d.numbers.CallingCodeOf(run.mobile)
	}
	resolved, err := d.resolver.Resolve(ctx, ResolveRequest{
		AccountID:    run.job.AccountID,
		Label:        run.job.Label,
		CountryCode:  callingCode,
		SenderID:     run.senderID,
		MobileNumber: run.mobile,
	})
	if err != nil {
		return provider.ParsedResult{}, err
	}
	if resolved == nil {
		return provider.ParsedResult{}, domain.ErrProductNotFound
	}
	run.resolved = resolved
	if d.cfg.EnforceBalance && !resolved.SufficientBalance {
		return provider.ParsedResult{}, domain.ErrInsufficientBalance
	}

	run.stage = StageGating
	allowed, err := d.accounts.HasAPIAccess(ctx, run.job.AccountID)
	if err != nil {
		return provider.ParsedResult{}, fmt.Errorf("check api access: %w", err)
	}
	if !allowed {
		return provider.ParsedResult{}, domain.ErrAPIDisabled
	}

	run.stage = StageDispatching
	adapter, err := d.adapters.Resolve(resolved.Provider)
	if err != nil {
		return provider.ParsedResult{}, err
	}
	sc := provider.SendContext{
		SmsID:        run.job.SmsID,
		SenderID:     run.senderID,
		MobileNumber: DigitsOnly(resolved.Destination),
		Text:         text.Text,
		Encoding:     text.Encoding,
		MessageTag:   run.job.SmsID,
		Source:       run.source,
		APIURL:       resolved.Provider.APIURL,
		Params:       resolved.Provider.Params,
	}
	result, parts, err := provider.Send(ctx, adapter, sc)
	run.adapterParts = parts
	if err != nil {
		return provider.ParsedResult{}, err
	}
	return result, nil
}

// bill debits the account and returns the charge. Failures are logged and
// recorded as a zero charge.
func (d *Dispatcher) bill(ctx context.Context, run *dispatchRun, logger *slog.Logger) decimal.Decimal {
	start := time.Now()
	charge, err := d.ledger.Debit(ctx, billingapp.DebitRequest{
		AccountID: run.job.AccountID,
		ProductID: run.resolved.Product.ID,
		UnitPrice: run.resolved.Price,
		Currency:  run.resolved.Currency,
		Parts:     run.parts(),
		Reference: run.job.SmsID,
	})
	if err != nil {
		ledgerDebitDurationHist.WithLabelValues("error").Observe(time.Since(start).Seconds())
		logger.ErrorContext(ctx, "Failed to debit account", "product_id", run.resolved.Product.ID, "error", err)
		return decimal.Zero
	}
	ledgerDebitDurationHist.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return charge
}

func (d *Dispatcher) buildHistory(run *dispatchRun, result provider.ParsedResult, credits decimal.Decimal) (*domain.SmsHistory, *domain.SmsHistorySnapshot) {
	now := d.now()
	text := run.text.Text
	if text == "" {
		text = run.job.SmsText
	}
	encoding := run.text.Encoding
	if encoding == 0 {
		encoding = domain.EncodingGSM
	}

	h := &domain.SmsHistory{
		ID:           run.job.SmsID,
		AccountID:    run.job.AccountID,
		Label:        run.job.Label,
		MobileNumber: run.job.MobileNumber,
		SenderID:     run.senderID,
		Text:         text,
		NumberOfSMS:  run.parts(),
		Encoding:     encoding,
		Source:       run.source,
		Credits:      credits,
		CreatedAt:    now,
	}
	if run.mobile != "" {
		formatted := run.mobile
		h.FormattedMobileNumber = &formatted
	}
	if run.resolved != nil {
		productID := run.resolved.Product.ID
		currency := run.resolved.Currency
		h.ProductID = &productID
		h.CurrencyCode = &currency
		h.IsInternational = run.resolved.IsGlobal
		if run.resolved.Provider != nil {
			providerID := run.resolved.Provider.ID
			h.ServiceProviderID = &providerID
		}
	}

	if !result.OK {
		h.ResponseID = "0"
		h.SentStatus = domain.SentStatusError
		h.StatusMessage = result.Reason
		return h, nil
	}
	h.ResponseID = result.MessageID
	h.SentStatus = domain.SentStatusSuccess
	h.StatusMessage = "Success"
	return h, &domain.SmsHistorySnapshot{
		ID:        uuid.NewString(),
		SmsID:     run.job.SmsID,
		MessageID: result.MessageID,
		AccountID: run.job.AccountID,
		CreatedAt: now,
	}
}

// pushFailedDLR records the failure as the delivery status and queues it
// for the merchant's delivery URL.
func (d *Dispatcher) pushFailedDLR(ctx context.Context, run *dispatchRun, reason string, logger *slog.Logger) bool {
	var productID string
	if run.resolved != nil {
		productID = run.resolved.Product.ID
	}
	url, err := d.deliveryURLs.GetDeliveryURL(ctx, run.job.AccountID, productID)
	if err != nil {
		logger.WarnContext(ctx, "Failed to load delivery url", "error", err)
	}

	now := d.now()
	status := "failed : " + reason
	if err := d.history.UpdateDeliveryStatus(ctx, run.job.SmsID, status, now); err != nil {
		logger.ErrorContext(ctx, "Failed to store delivery status", "error", err)
	}
	if url == "" {
		logger.InfoContext(ctx, "No delivery url configured, DLR not pushed")
		return false
	}

	mobile := run.mobile
	if mobile == "" {
		mobile = run.job.MobileNumber
	}
	payload := domain.DLRPayload{
		SmsID:          run.job.SmsID,
		MobileNumber:   mobile,
		DeliveryStatus: status,
		Timestamp:      now.Format(dlrTimestampLayout),
		Label:          run.job.Label,
		HTTPMethod:     "POST",
		DeliveryURL:    url,
	}
	if err := d.tasks.Enqueue(ctx, domain.TaskPushDeliveryReport, payload, d.cfg.DLRQueue); err != nil {
		logger.ErrorContext(ctx, "Failed to enqueue DLR push", "error", err)
		return false
	}
	dlrQueuedCounter.WithLabelValues(reason).Inc()
	return true
}

var knownFailures = []error{
	domain.ErrLabelNotFound,
	domain.ErrLabelNotActive,
	domain.ErrInvalidCountryForProduct,
	domain.ErrProductNotFound,
	domain.ErrInsufficientBalance,
	domain.ErrInvalidMobileNumber,
	domain.ErrAPIDisabled,
	domain.ErrInvalidSMSText,
}

// internalErrorReason replaces infrastructure error text in history and
// delivery reports. The detail is only logged.
const internalErrorReason = "INTERNAL-ERROR"

// failureReason maps err to the code stored in history and matched against
// the chargeable and DLR lists.
func failureReason(err error) string {
	for _, known := range knownFailures {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	var perr *provider.ProviderError
	if errors.As(err, &perr) {
		return perr.Error()
	}
	return internalErrorReason
}
