package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/shopspring/decimal"
)

// BalanceChecker reports whether an account can pay price for a product.
type BalanceChecker interface {
	CheckBalance(ctx context.Context, accountID int64, productID string, price decimal.Decimal, currency string) (bool, error)
}

// NumberNormalizer formats numbers against a calling code region.
type NumberNormalizer interface {
	Normalize(number, callingCode string) (string, bool)
	CallingCodeOf(number string) (string, bool)
}

// ResolveRequest carries the routing inputs of one send. CountryCode is a
// calling code ("1"); empty means unknown.
type ResolveRequest struct {
	AccountID    int64
	Label        *string
	CountryCode  string
	SenderID     string
	MobileNumber string
}

// Router picks the product, provider and price for a send.
type Router struct {
	catalog   domain.CatalogRepository
	providers domain.ProviderRepository
	accounts  domain.AccountRepository
	cache     *CatalogCache
	balance   BalanceChecker
	numbers   NumberNormalizer
	logger    *slog.Logger
}

func NewRouter(
	catalog domain.CatalogRepository,
	providers domain.ProviderRepository,
	accounts domain.AccountRepository,
	cache *CatalogCache,
	balance BalanceChecker,
	numbers NumberNormalizer,
	logger *slog.Logger,
) *Router {
	return &Router{
		catalog:   catalog,
		providers: providers,
		accounts:  accounts,
		cache:     cache,
		balance:   balance,
		numbers:   numbers,
		logger:    logger.With("component", "router"),
	}
}

// destination is a mobile number paired with the ISO and calling code it
// routes to.
type destination struct {
	number      string
	iso         string
	callingCode string
}

// Resolve returns the routing decision, or (nil, nil) when the account has no
// product for the destination.
func (r *Router) Resolve(ctx context.Context, req ResolveRequest) (*domain.ResolvedProduct, error) {
	if req.Label != nil && *req.Label != "" {
		return r.resolveLabel(ctx, req)
	}
	return r.resolveDefault(ctx, req)
}

// resolveLabel never falls back to a global default: an underfunded label
// is reported through SufficientBalance.
func (r *Router) resolveLabel(ctx context.Context, req ResolveRequest) (*domain.ResolvedProduct, error) {
	label, err := r.catalog.GetActiveLabel(ctx, req.AccountID, *req.Label)
	if err != nil {
		return nil, err
	}
	product, err := r.catalog.GetProduct(ctx, label.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product %s for label %s: %w", label.ProductID, label.Name, err)
	}

	var dest destination
	if req.CountryCode == "" {
		iso := label.CountryCode
		if iso == "" {
			iso, err = r.accounts.GetCustomerCountry(ctx, req.AccountID)
			if err != nil {
				return nil, fmt.Errorf("load customer country: %w", err)
			}
		}
		dest, err = r.normalizeFor(ctx, req.MobileNumber, iso)
	} else {
		dest, err = r.destinationFor(ctx, req.MobileNumber, req.CountryCode)
	}
	if err != nil {
		return nil, err
	}

	resolved, err := r.composite(ctx, product, dest)
	if err != nil {
		return nil, err
	}
	resolved.SufficientBalance, err = r.balance.CheckBalance(ctx, req.AccountID, product.ID, resolved.Price, resolved.Currency)
	if err != nil {
		return nil, fmt.Errorf("check balance: %w", err)
	}
	r.logger.DebugContext(ctx, "Resolved label", "label", label.Name, "product_id", product.ID, "sufficient_balance", resolved.SufficientBalance)
	return resolved, nil
}

func (r *Router) resolveDefault(ctx context.Context, req ResolveRequest) (*domain.ResolvedProduct, error) {
	var (
		dest destination
		err  error
	)
	if req.CountryCode == "" {
		iso, cErr := r.accounts.GetCustomerCountry(ctx, req.AccountID)
		if cErr != nil {
			return nil, fmt.Errorf("load customer country: %w", cErr)
		}
		dest, err = r.normalizeFor(ctx, req.MobileNumber, iso)
	} else {
		dest, err = r.destinationFor(ctx, req.MobileNumber, req.CountryCode)
	}
	if err != nil {
		return nil, err
	}

	subtype := domain.SubtypeLongCode
	if len(req.SenderID) < 7 {
		subtype = domain.SubtypeShortCode
	}

	rows, err := r.catalog.ListDefaultProducts(ctx, req.AccountID, []string{subtype, domain.SubtypeOneWay}, dest.iso)
	if err != nil {
		return nil, fmt.Errorf("list default products: %w", err)
	}
	product, err := r.firstFunded(ctx, req.AccountID, rows, dest)
	if err != nil {
		return nil, err
	}

	if product == nil {
		rows, err = r.catalog.ListDefaultProducts(ctx, req.AccountID, nil, domain.GlobalCountryCode)
		if err != nil {
			return nil, fmt.Errorf("list global default products: %w", err)
		}
		product, err = r.firstFunded(ctx, req.AccountID, rows, dest)
		if err != nil {
			return nil, err
		}
	}
	if product == nil {
		r.logger.InfoContext(ctx, "No funded default product", "account_id", req.AccountID, "country", dest.iso, "subtype", subtype)
		return nil, nil
	}

	resolved, err := r.composite(ctx, product, dest)
	if err != nil {
		return nil, err
	}
	resolved.SufficientBalance = true
	r.logger.DebugContext(ctx, "Resolved default product", "product_id", product.ID, "global", resolved.IsGlobal)
	return resolved, nil
}

// firstFunded walks rows in order and returns the first product the account
// can pay for at its effective price.
func (r *Router) firstFunded(ctx context.Context, accountID int64, rows []domain.DefaultProduct, dest destination) (*domain.Product, error) {
	for _, row := range rows {
		product, err := r.catalog.GetProduct(ctx, row.ProductID)
		if err != nil {
			r.logger.WarnContext(ctx, "Skipping default product", "product_id", row.ProductID, "error", err)
			continue
		}
		price := product.OutboundPrice
		if product.IsGlobal() {
			gp, err := r.cache.GlobalPrice(ctx, product.ID, dest.iso)
			if err != nil {
				return nil, err
			}
			if gp == nil {
				continue
			}
			price = gp.Price
		}
		ok, err := r.balance.CheckBalance(ctx, accountID, product.ID, price, product.BaseCurrency)
		if err != nil {
			return nil, fmt.Errorf("check balance for %s: %w", product.ID, err)
		}
		if ok {
			return product, nil
		}
	}
	return nil, nil
}

// composite attaches the provider and effective price of product for dest.
func (r *Router) composite(ctx context.Context, product *domain.Product, dest destination) (*domain.ResolvedProduct, error) {
	resolved := &domain.ResolvedProduct{
		Product:     product,
		Price:       product.OutboundPrice,
		Currency:    product.BaseCurrency,
		Destination: dest.number,
		CountryCode: dest.callingCode,
	}
	providerID := product.ProviderID

	if product.IsGlobal() {
		gp, err := r.cache.GlobalPrice(ctx, product.ID, dest.iso)
		if err != nil {
			return nil, err
		}
		if gp == nil {
			return nil, domain.ErrInvalidCountryForProduct
		}
		resolved.IsGlobal = true
		resolved.Price = gp.Price
		providerID = gp.ProviderID
	} else if product.CountryCode != dest.iso {
		return nil, domain.ErrInvalidCountryForProduct
	}

	sp, err := r.providers.GetByID(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("load provider %d: %w", providerID, err)
	}
	resolved.Provider = sp
	return resolved, nil
}

// normalizeFor formats number for the region of iso.
func (r *Router) normalizeFor(ctx context.Context, number, iso string) (destination, error) {
	calling, ok, err := r.cache.CallingCodeForISO(ctx, iso)
	if err != nil {
		return destination{}, err
	}
	if !ok {
		return destination{}, domain.ErrInvalidCountryForProduct
	}
	normalized, ok := r.numbers.Normalize(number, calling)
	if !ok {
		return destination{}, domain.ErrInvalidMobileNumber
	}
	return destination{number: normalized, iso: iso, callingCode: calling}, nil
}

// destinationFor keeps number as given and maps the calling code to ISO.
func (r *Router) destinationFor(ctx context.Context, number, callingCode string) (destination, error) {
	iso, ok, err := r.cache.ISOForCallingCode(ctx, callingCode)
	if err != nil {
		return destination{}, err
	}
	if !ok {
		return destination{}, domain.ErrInvalidCountryForProduct
	}
	return destination{number: number, iso: iso, callingCode: callingCode}, nil
}

// IsRoutingError reports whether err is a routing outcome rather than an
// infrastructure failure.
func IsRoutingError(err error) bool {
	return errors.Is(err, domain.ErrLabelNotFound) ||
		errors.Is(err, domain.ErrLabelNotActive) ||
		errors.Is(err, domain.ErrInvalidCountryForProduct) ||
		errors.Is(err, domain.ErrInvalidMobileNumber) ||
		errors.Is(err, domain.ErrProductNotFound)
}
