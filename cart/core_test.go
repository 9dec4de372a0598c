package cart

import (
	"testing"

	"veloura/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(productID, variantID string, qty int, price float64) models.CartItem {
	return models.CartItem{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  qty,
		Price:     price,
	}
}

func TestRecalcTotalPriceUsesOfferPrice(t *testing.T) {
	offer := 80.0
	c := &models.Cart{Items: []models.CartItem{
		{ProductID: "p1", Quantity: 2, Price: 100, OfferPrice: &offer},
		{ProductID: "p2", Quantity: 1, Price: 50},
	}}

	RecalcTotalPrice(c)

	assert.Equal(t, 2*80.0+50.0, c.TotalPrice)
}

func TestUpsertItemMergesSameVariantLine(t *testing.T) {
	c := &models.Cart{Items: []models.CartItem{line("p1", "v1", 1, 100)}}

	// the incoming snapshot price is ignored when the line already exists
	UpsertItem(c, line("p1", "v1", 2, 120))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, 100.0, c.Items[0].Price)
	assert.Equal(t, 300.0, c.TotalPrice)
}

func TestUpsertItemKeepsVariantLinesDistinct(t *testing.T) {
	c := &models.Cart{Items: []models.CartItem{line("p1", "v1", 1, 100)}}

	UpsertItem(c, line("p1", "v2", 1, 150))
	UpsertItem(c, line("p1", "", 1, 90))

	assert.Len(t, c.Items, 3)
	assert.Equal(t, 340.0, c.TotalPrice)
}

func TestRemoveLineExactVariantMatch(t *testing.T) {
	c := &models.Cart{Items: []models.CartItem{
		line("p1", "v1", 1, 100),
		line("p1", "v2", 1, 150),
		line("p1", "", 2, 90),
	}}
	RecalcTotalPrice(c)

	removed := RemoveLine(c, "p1", "v1")

	require.True(t, removed)
	require.Len(t, c.Items, 2)
	assert.Equal(t, "v2", c.Items[0].VariantID)
	assert.Equal(t, "", c.Items[1].VariantID)
	assert.Equal(t, 150.0+2*90.0, c.TotalPrice)
}

func TestRemoveLineMissingLine(t *testing.T) {
	c := &models.Cart{Items: []models.CartItem{line("p1", "v1", 1, 100)}}
	RecalcTotalPrice(c)

	assert.False(t, RemoveLine(c, "p1", "v9"))
	assert.Len(t, c.Items, 1)
}

func TestApplyQuantityActionIncrement(t *testing.T) {
	c := &models.Cart{Items: []models.CartItem{line("p1", "", 1, 100)}}

	require.True(t, ApplyQuantityAction(c, "p1", "", ActionIncrement))

	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, 200.0, c.TotalPrice)
}

func TestApplyQuantityActionDecrementBelowOneRemovesLine(t *testing.T) {
	c := &models.Cart{Items: []models.CartItem{
		line("p1", "", 1, 100),
		line("p2", "", 2, 50),
	}}
	RecalcTotalPrice(c)

	require.True(t, ApplyQuantityAction(c, "p1", "", ActionDecrement))

	require.Len(t, c.Items, 1)
	assert.Equal(t, "p2", c.Items[0].ProductID)
	assert.Equal(t, 100.0, c.TotalPrice)
}

func TestApplyQuantityActionUnknownAction(t *testing.T) {
	c := &models.Cart{Items: []models.CartItem{line("p1", "", 1, 100)}}

	assert.False(t, ApplyQuantityAction(c, "p1", "", "double"))
	assert.Equal(t, 1, c.Items[0].Quantity)
}
