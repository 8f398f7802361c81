package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/aradsms/sms_engine/internal/billing_service/domain"
	"github.com/shopspring/decimal"
)

// Converter converts amounts between currencies through their rates against
// the reference currency.
type Converter struct {
	rates domain.ExchangeRateRepository
}

func NewConverter(rates domain.ExchangeRateRepository) *Converter {
	return &Converter{rates: rates}
}

// Convert returns (amount / rate_from) * rate_to. Equal currency codes are a
// no-op and never touch the rate store.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if strings.EqualFold(from, to) {
		return amount, nil
	}
	fromRate, err := c.rates.GetActiveRate(ctx, strings.ToUpper(from))
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate for %s: %w", from, err)
	}
	toRate, err := c.rates.GetActiveRate(ctx, strings.ToUpper(to))
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate for %s: %w", to, err)
	}
	if fromRate.Rate.IsZero() {
		return decimal.Zero, fmt.Errorf("rate for %s is zero: %w", from, domain.ErrExchangeRateNotFound)
	}
	return amount.Div(fromRate.Rate).Mul(toRate.Rate), nil
}
