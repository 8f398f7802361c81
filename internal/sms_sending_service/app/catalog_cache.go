package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
)

type priceKey struct {
	productID   string
	countryCode string
}

// CatalogCache holds the country table and global product prices that every
// routing decision reads. It is refreshed on a ticker and read through on a
// global price miss.
type CatalogCache struct {
	repo   domain.CatalogRepository
	logger *slog.Logger

	mu           sync.RWMutex
	loaded       bool
	isoByCalling map[string]string
	callingByISO map[string]string
	prices       map[priceKey]domain.GlobalProductPrice
}

func NewCatalogCache(repo domain.CatalogRepository, logger *slog.Logger) *CatalogCache {
	return &CatalogCache{
		repo:         repo,
		logger:       logger.With("component", "catalog_cache"),
		isoByCalling: make(map[string]string),
		callingByISO: make(map[string]string),
		prices:       make(map[priceKey]domain.GlobalProductPrice),
	}
}

// Refresh replaces the cached snapshot. Countries sharing a calling code map
// to the first one the repository returns.
func (c *CatalogCache) Refresh(ctx context.Context) error {
	countries, err := c.repo.ListCountries(ctx)
	if err != nil {
		return fmt.Errorf("load countries: %w", err)
	}
	globalPrices, err := c.repo.ListGlobalPrices(ctx)
	if err != nil {
		return fmt.Errorf("load global prices: %w", err)
	}

	isoByCalling := make(map[string]string, len(countries))
	callingByISO := make(map[string]string, len(countries))
	for _, country := range countries {
		iso := strings.ToUpper(country.ISOCode)
		callingByISO[iso] = country.CallingCode
		if _, taken := isoByCalling[country.CallingCode]; !taken {
			isoByCalling[country.CallingCode] = iso
		}
	}
	prices := make(map[priceKey]domain.GlobalProductPrice, len(globalPrices))
	for _, p := range globalPrices {
		prices[priceKey{p.ProductID, strings.ToUpper(p.CountryCode)}] = p
	}

	c.mu.Lock()
	c.isoByCalling = isoByCalling
	c.callingByISO = callingByISO
	c.prices = prices
	c.loaded = true
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Catalog cache refreshed", "countries", len(countries), "global_prices", len(globalPrices))
	return nil
}

// Run refreshes every interval until ctx is cancelled.
func (c *CatalogCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.ErrorContext(ctx, "Catalog refresh failed", "error", err)
			}
		}
	}
}

// Invalidate drops the snapshot; the next read reloads it.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.isoByCalling = make(map[string]string)
	c.callingByISO = make(map[string]string)
	c.prices = make(map[priceKey]domain.GlobalProductPrice)
	c.mu.Unlock()
}

func (c *CatalogCache) ensureLoaded(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Refresh(ctx)
}

// ISOForCallingCode maps "1" to "US".
func (c *CatalogCache) ISOForCallingCode(ctx context.Context, callingCode string) (string, bool, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return "", false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	iso, ok := c.isoByCalling[strings.TrimPrefix(callingCode, "+")]
	return iso, ok, nil
}

// CallingCodeForISO maps "US" to "1".
func (c *CatalogCache) CallingCodeForISO(ctx context.Context, iso string) (string, bool, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return "", false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	calling, ok := c.callingByISO[strings.ToUpper(iso)]
	return calling, ok, nil
}

// GlobalPrice returns the price row of a global product for a destination,
// or nil when none exists.
func (c *CatalogCache) GlobalPrice(ctx context.Context, productID, iso string) (*domain.GlobalProductPrice, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	key := priceKey{productID, strings.ToUpper(iso)}

	c.mu.RLock()
	p, ok := c.prices[key]
	c.mu.RUnlock()
	if ok {
		return &p, nil
	}

	row, err := c.repo.GetGlobalPrice(ctx, productID, key.countryCode)
	if err != nil {
		return nil, fmt.Errorf("read global price %s/%s: %w", productID, key.countryCode, err)
	}
	if row == nil {
		return nil, nil
	}
	c.mu.Lock()
	c.prices[key] = *row
	c.mu.Unlock()
	return row, nil
}
