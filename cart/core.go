package cart

import (
	"veloura/models"
)

const (
	ActionIncrement = "increment"
	ActionDecrement = "decrement"
)

// RecalcTotalPrice rewrites TotalPrice from the line snapshots. Every cart
// mutation ends with this, keeping the invariant
// totalPrice == sum(unitPrice * quantity).
func RecalcTotalPrice(c *models.Cart) {
	total := 0.0
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	c.TotalPrice = total
}

func sameLine(item models.CartItem, productID, variantID string) bool {
	return item.ProductID == productID && item.VariantID == variantID
}

// UpsertItem merges quantity into an existing (product, variant) line or
// appends a new one. The existing line keeps its original price snapshot.
func UpsertItem(c *models.Cart, item models.CartItem) {
	for i := range c.Items {
		if sameLine(c.Items[i], item.ProductID, item.VariantID) {
			c.Items[i].Quantity += item.Quantity
			RecalcTotalPrice(c)
			return
		}
	}
	c.Items = append(c.Items, item)
	RecalcTotalPrice(c)
}

// RemoveLine deletes the line matching (product, variant) exactly. A bare
// product and its variants are distinct lines: removing one never touches
// the other.
func RemoveLine(c *models.Cart, productID, variantID string) bool {
	kept := c.Items[:0]
	removed := false
	for _, item := range c.Items {
		if sameLine(item, productID, variantID) {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
	if removed {
		RecalcTotalPrice(c)
	}
	return removed
}

// ApplyQuantityAction increments or decrements a line's quantity.
// Decrementing below 1 removes the line instead of leaving quantity 0.
// Returns false when no matching line exists.
func ApplyQuantityAction(c *models.Cart, productID, variantID, action string) bool {
	for i := range c.Items {
		if !sameLine(c.Items[i], productID, variantID) {
			continue
		}
		switch action {
		case ActionIncrement:
			c.Items[i].Quantity++
		case ActionDecrement:
			if c.Items[i].Quantity <= 1 {
				return RemoveLine(c, productID, variantID)
			}
			c.Items[i].Quantity--
		default:
			return false
		}
		RecalcTotalPrice(c)
		return true
	}
	return false
}
