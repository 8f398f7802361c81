package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SubtypeShortCode = "short_code"
	SubtypeLongCode  = "long_code"
	SubtypeOneWay    = "one_way"

	// GlobalCountryCode marks products and default products that route to
	// any destination through GlobalProductPrice rows.
	GlobalCountryCode = "OG"
)

// Product is a purchasable sending route.
type Product struct {
	ID            string
	Category      string
	Subtype       string
	CountryCode   string // ISO code, or GlobalCountryCode
	BaseCurrency  string
	OutboundPrice decimal.Decimal
	ProviderID    int64
	MerchantID    int64
}

func (p *Product) IsGlobal() bool {
	return p.CountryCode == GlobalCountryCode
}

// Label is an account-defined alias for a product.
type Label struct {
	ID          int64
	AccountID   int64
	Name        string
	ProductID   string
	CountryCode string // ISO code; empty for a global label
	IsActive    bool
	DeletedAt   *time.Time
}

// DefaultProduct is the product used when a request carries no label.
type DefaultProduct struct {
	ID          int64
	AccountID   int64
	Subtype     string
	CountryCode string
	ProductID   string
	IsActive    bool
	CreatedAt   time.Time
}

// GlobalProductPrice is the per-destination price of a global product.
type GlobalProductPrice struct {
	ProductID   string
	CountryCode string // destination ISO code
	Price       decimal.Decimal
	ProviderID  int64
}

// Country maps an ISO code to its calling code.
type Country struct {
	ISOCode     string // "US"
	CallingCode string // "1"
}

// CatalogRepository reads products, labels and default products.
type CatalogRepository interface {
	// GetActiveLabel returns ErrLabelNotFound when no active, non-deleted
	// label has that name.
	GetActiveLabel(ctx context.Context, accountID int64, name string) (*Label, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	// ListDefaultProducts returns active rows ordered by created_at, id.
	ListDefaultProducts(ctx context.Context, accountID int64, subtypes []string, countryCode string) ([]DefaultProduct, error)
	ListCountries(ctx context.Context) ([]Country, error)
	ListGlobalPrices(ctx context.Context) ([]GlobalProductPrice, error)
	// GetGlobalPrice returns (nil, nil) when no row exists.
	GetGlobalPrice(ctx context.Context, productID, countryCode string) (*GlobalProductPrice, error)
}
