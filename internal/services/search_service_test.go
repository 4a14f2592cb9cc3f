package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blameja-pos/internal/cache"
	"blameja-pos/internal/models"
	"blameja-pos/internal/search"
)

type fakeLookupCache struct {
	rows map[string]models.ProductStock
	sets []string
}

func (f *fakeLookupCache) Get(_ context.Context, code string) (*models.ProductStock, error) {
	p, ok := f.rows[code]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &p, nil
}

func (f *fakeLookupCache) Set(_ context.Context, code string, p models.ProductStock) error {
	if f.rows == nil {
		f.rows = map[string]models.ProductStock{}
	}
	f.rows[code] = p
	f.sets = append(f.sets, code)
	return nil
}

func TestFindByCodeUsesCache(t *testing.T) {
	dbHits := 0
	products := &fakeProducts{
		findStockByCode: func(_ context.Context, code string) (*models.ProductStock, error) {
			dbHits++
			if code != "5310001" {
				return nil, nil
			}
			return &models.ProductStock{ProductID: "p1", Name: "Hoe", QtyOnHand: 4}, nil
		},
	}
	lookup := &fakeLookupCache{}
	svc := NewSearchService(products, &fakeCatalog{}, lookup, 0, zap.NewNop())

	p, err := svc.FindByCode(context.Background(), " 5310001 ")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ProductID)
	assert.Equal(t, []string{"5310001"}, lookup.sets)

	p, err = svc.FindByCode(context.Background(), "5310001")
	require.NoError(t, err)
	assert.Equal(t, "Hoe", p.Name)
	assert.Equal(t, 1, dbHits)

	_, err = svc.FindByCode(context.Background(), "999")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.FindByCode(context.Background(), "   ")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSaleSuggestionsRanking(t *testing.T) {
	row := func(id string, qty float64) models.ProductStock {
		return models.ProductStock{ProductID: id, QtyOnHand: qty}
	}
	var exactLimit, substringLimit int
	products := &fakeProducts{
		stockByPLU: func(_ context.Context, plu string, limit int) ([]models.ProductStock, error) {
			assert.Equal(t, "1001", plu)
			exactLimit = limit
			return []models.ProductStock{row("p1", 0)}, nil
		},
		searchStock: func(_ context.Context, _ string, limit int) ([]models.ProductStock, error) {
			substringLimit = limit
			return []models.ProductStock{row("p2", 1), row("p1", 0), row("p3", 9)}, nil
		},
	}
	svc := NewSearchService(products, &fakeCatalog{}, nil, 0, zap.NewNop())

	out, err := svc.SaleSuggestions(context.Background(), "1001", 0)
	require.NoError(t, err)

	ids := make([]string, 0, len(out))
	for _, p := range out {
		ids = append(ids, p.ProductID)
	}
	assert.Equal(t, []string{"p1", "p3", "p2"}, ids)
	assert.Equal(t, search.DefaultProductLimit, exactLimit)
	assert.Equal(t, search.DefaultProductLimit, substringLimit)
}

func TestSaleSuggestionsTextSkipsExactQuery(t *testing.T) {
	products := &fakeProducts{
		searchStock: func(context.Context, string, int) ([]models.ProductStock, error) {
			return nil, nil
		},
	}
	svc := NewSearchService(products, &fakeCatalog{}, nil, 0, zap.NewNop())

	out, err := svc.SaleSuggestions(context.Background(), "copper", 500)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)

	out, err = svc.SaleSuggestions(context.Background(), "  ", 5)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSaleSuggestionsError(t *testing.T) {
	products := &fakeProducts{
		searchStock: func(context.Context, string, int) ([]models.ProductStock, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewSearchService(products, &fakeCatalog{}, nil, 0, zap.NewNop())

	_, err := svc.SaleSuggestions(context.Background(), "copper", 5)
	assert.Error(t, err)
}

func TestBuyersAndSuppliers(t *testing.T) {
	catalog := &fakeCatalog{buyers: []models.Buyer{
		{Key: "person:1", Name: "Ilija Petrov", Source: models.BuyerPerson},
		{Key: "supplier:2", Name: "Agrohem", Address: strPtr("Kumanovo"), Source: models.BuyerSupplier},
	}}
	svc := NewSearchService(&fakeProducts{}, catalog, nil, 0, zap.NewNop())

	buyers, err := svc.Buyers(context.Background(), "kuman", 0)
	require.NoError(t, err)
	require.Len(t, buyers, 1)
	assert.Equal(t, "Agrohem", buyers[0].Name)

	buyers, err = svc.Buyers(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, buyers)

	_, err = svc.Suppliers(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, search.DefaultSupplierLimit, catalog.searchLimit)
}
