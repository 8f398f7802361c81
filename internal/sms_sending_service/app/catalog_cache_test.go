package app

import (
	"context"
	"testing"

	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCache_CountryMapping(t *testing.T) {
	catalog := newMemCatalog()
	catalog.countries = append(catalog.countries, domain.Country{ISOCode: "ca", CallingCode: "1"})
	cache := NewCatalogCache(catalog, discardLogger())
	ctx := context.Background()

	iso, ok, err := cache.ISOForCallingCode(ctx, "+1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "US", iso, "first country wins a shared calling code")

	calling, ok, err := cache.CallingCodeForISO(ctx, "CA")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", calling)

	_, ok, err = cache.ISOForCallingCode(ctx, "999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalogCache_GlobalPriceReadThrough(t *testing.T) {
	catalog := newMemCatalog()
	cache := NewCatalogCache(catalog, discardLogger())
	ctx := context.Background()
	require.NoError(t, cache.Refresh(ctx))

	catalog.globalPrices = []domain.GlobalProductPrice{
		{ProductID: "p-og", CountryCode: "GB", Price: mustDecimal("0.05"), ProviderID: 2},
	}

	got, err := cache.GlobalPrice(ctx, "p-og", "gb")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, mustDecimal("0.05").Equal(got.Price))

	_, err = cache.GlobalPrice(ctx, "p-og", "GB")
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.globalLookups, "second read is served from the cache")

	missing, err := cache.GlobalPrice(ctx, "p-og", "IN")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCatalogCache_Invalidate(t *testing.T) {
	catalog := newMemCatalog()
	cache := NewCatalogCache(catalog, discardLogger())
	ctx := context.Background()
	require.NoError(t, cache.Refresh(ctx))

	catalog.countries = append(catalog.countries, domain.Country{ISOCode: "DE", CallingCode: "49"})
	_, ok, err := cache.CallingCodeForISO(ctx, "DE")
	require.NoError(t, err)
	assert.False(t, ok)

	cache.Invalidate()
	calling, ok, err := cache.CallingCodeForISO(ctx, "DE")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "49", calling)
}
