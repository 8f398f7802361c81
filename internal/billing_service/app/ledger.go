package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aradsms/sms_engine/internal/billing_service/domain"
	"github.com/aradsms/sms_engine/internal/platform/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// DebitRequest charges UnitPrice * Parts, priced in Currency.
type DebitRequest struct {
	AccountID int64
	ProductID string
	UnitPrice decimal.Decimal
	Currency  string
	Parts     int
	Reference string // sms id, recorded on the journal entry
}

// Ledger is the per-account, per-product prepaid balance store.
type Ledger struct {
	db        database.Querier
	txRunner  database.TxRunner
	credits   domain.CreditRepository
	journal   domain.TransactionRepository
	converter *Converter
	logger    *slog.Logger
}

func NewLedger(
	db database.Querier,
	txRunner database.TxRunner,
	credits domain.CreditRepository,
	journal domain.TransactionRepository,
	converter *Converter,
	logger *slog.Logger,
) *Ledger {
	return &Ledger{
		db:        db,
		txRunner:  txRunner,
		credits:   credits,
		journal:   journal,
		converter: converter,
		logger:    logger.With("component", "ledger"),
	}
}

// CheckBalance reports whether the credit row holds at least price, after
// converting price into the row's currency. A missing row is not funded.
func (l *Ledger) CheckBalance(ctx context.Context, accountID int64, productID string, price decimal.Decimal, currency string) (bool, error) {
	credit, err := l.credits.GetByAccountAndProduct(ctx, l.db, accountID, productID)
	if err != nil {
		if errors.Is(err, domain.ErrCreditNotFound) {
			ledgerOperationsCounter.WithLabelValues("check", "no_credit").Inc()
			return false, nil
		}
		ledgerOperationsCounter.WithLabelValues("check", "error").Inc()
		return false, fmt.Errorf("check balance: %w", err)
	}

	converted, err := l.converter.Convert(ctx, price, currency, credit.CurrencyCode)
	if err != nil {
		ledgerOperationsCounter.WithLabelValues("check", "error").Inc()
		return false, fmt.Errorf("check balance: %w", err)
	}

	ok := credit.Balance.GreaterThanOrEqual(converted)
	if ok {
		ledgerOperationsCounter.WithLabelValues("check", "funded").Inc()
	} else {
		ledgerOperationsCounter.WithLabelValues("check", "insufficient").Inc()
	}
	return ok, nil
}

// Debit charges the account for req.Parts units and returns the charge in
// req.Currency. The charge is applied even when it drives the balance negative.
func (l *Ledger) Debit(ctx context.Context, req DebitRequest) (decimal.Decimal, error) {
	if req.Parts <= 0 {
		return decimal.Zero, domain.ErrInvalidDebitParts
	}
	charge := req.UnitPrice.Mul(decimal.NewFromInt(int64(req.Parts)))

	credit, err := l.upsert(ctx, req.AccountID, req.ProductID, charge.Neg(), req.Currency, req.Reference)
	if err != nil {
		ledgerOperationsCounter.WithLabelValues("debit", "error").Inc()
		return decimal.Zero, err
	}
	ledgerOperationsCounter.WithLabelValues("debit", "success").Inc()
	l.logger.DebugContext(ctx, "Debited credit",
		"account_id", req.AccountID, "product_id", req.ProductID,
		"charge", charge.String(), "currency", req.Currency,
		"balance_after", credit.Balance.String())
	return charge, nil
}

// Upsert applies delta (in currency) to the (account, product) credit row,
// creating the row when absent. Negative deltas also grow used_balance.
func (l *Ledger) Upsert(ctx context.Context, accountID int64, productID string, delta decimal.Decimal, currency string) (*domain.Credit, error) {
	credit, err := l.upsert(ctx, accountID, productID, delta, currency, "")
	if err != nil {
		ledgerOperationsCounter.WithLabelValues("upsert", "error").Inc()
		return nil, err
	}
	ledgerOperationsCounter.WithLabelValues("upsert", "success").Inc()
	return credit, nil
}

// AvailableBalance returns the current credit row. Returns ErrCreditNotFound.
func (l *Ledger) AvailableBalance(ctx context.Context, accountID int64, productID string) (*domain.Credit, error) {
	return l.credits.GetByAccountAndProduct(ctx, l.db, accountID, productID)
}

func (l *Ledger) upsert(ctx context.Context, accountID int64, productID string, delta decimal.Decimal, currency, reference string) (*domain.Credit, error) {
	var result *domain.Credit
	txErr := l.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		credit, err := l.credits.LockByAccountAndProduct(ctx, tx, accountID, productID)
		if err != nil && !errors.Is(err, domain.ErrCreditNotFound) {
			return fmt.Errorf("lock credit: %w", err)
		}

		if credit == nil {
			now := time.Now().UTC()
			fresh := &domain.Credit{
				ID:           uuid.NewString(),
				AccountID:    accountID,
				ProductID:    productID,
				Balance:      delta,
				UsedBalance:  decimal.Zero,
				CurrencyCode: currency,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			created, err := l.credits.InsertIfAbsent(ctx, tx, fresh)
			if err != nil {
				return fmt.Errorf("insert credit: %w", err)
			}
			if created {
				ledgerRowCreatedCounter.Inc()
				result = fresh
				return l.record(ctx, tx, fresh, domain.TransactionTypeOpening, delta, currency, delta, reference)
			}
			// A concurrent writer created the row first; apply delta on top of it.
			credit, err = l.credits.LockByAccountAndProduct(ctx, tx, accountID, productID)
			if err != nil {
				return fmt.Errorf("relock credit after insert conflict: %w", err)
			}
		}

		converted, err := l.converter.Convert(ctx, delta, currency, credit.CurrencyCode)
		if err != nil {
			return err
		}
		if converted.IsNegative() {
			credit.UsedBalance = credit.UsedBalance.Add(converted.Neg())
		}
		credit.Balance = credit.Balance.Add(converted)
		credit.UpdatedAt = time.Now().UTC()

		if err := l.credits.UpdateBalances(ctx, tx, credit); err != nil {
			return fmt.Errorf("update credit: %w", err)
		}
		result = credit

		txType := domain.TransactionTypeTopUp
		if converted.IsNegative() {
			txType = domain.TransactionTypeSMSCharge
		}
		return l.record(ctx, tx, credit, txType, delta, currency, converted, reference)
	})
	if txErr != nil {
		l.logger.ErrorContext(ctx, "Credit upsert failed",
			"account_id", accountID, "product_id", productID, "delta", delta.String(), "currency", currency, "error", txErr)
		return nil, txErr
	}
	return result, nil
}

func (l *Ledger) record(ctx context.Context, tx pgx.Tx, credit *domain.Credit, txType domain.TransactionType,
	amount decimal.Decimal, currency string, applied decimal.Decimal, reference string) error {
	entry := &domain.CreditTransaction{
		ID:              uuid.NewString(),
		CreditID:        credit.ID,
		AccountID:       credit.AccountID,
		ProductID:       credit.ProductID,
		Type:            txType,
		Amount:          amount,
		RequestCurrency: currency,
		AppliedAmount:   applied,
		BalanceAfter:    credit.Balance,
		Reference:       reference,
		CreatedAt:       time.Now().UTC(),
	}
	if err := l.journal.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("record credit transaction: %w", err)
	}
	return nil
}
