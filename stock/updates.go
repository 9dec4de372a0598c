package stock

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/julienschmidt/httprouter"
)

// A global map to manage product-specific update channels
var productUpdateChannels = struct {
	sync.RWMutex
	channels map[string]chan map[string]any
}{
	channels: make(map[string]chan map[string]any),
}

// GetUpdatesChannel returns (or creates) the updates channel for a product.
func GetUpdatesChannel(productID string) chan map[string]any {
	productUpdateChannels.RLock()
	if ch, exists := productUpdateChannels.channels[productID]; exists {
		productUpdateChannels.RUnlock()
		return ch
	}
	productUpdateChannels.RUnlock()

	productUpdateChannels.Lock()
	defer productUpdateChannels.Unlock()
	// Re-check after upgrading the lock: a racing caller may have created the
	// channel in between, and replacing it would orphan its subscribers.
	if ch, exists := productUpdateChannels.channels[productID]; exists {
		return ch
	}
	newCh := make(chan map[string]any, 10) // Buffered channel
	productUpdateChannels.channels[productID] = newCh
	return newCh
}

// BroadcastStockUpdate sends real-time stock updates to subscribers.
func BroadcastStockUpdate(ref UnitRef, remaining int) {
	update := map[string]any{
		"type":      "stock_update",
		"productId": ref.ProductID,
		"variantId": ref.VariantID,
		"remaining": remaining,
	}
	channel := GetUpdatesChannel(ref.ProductID)
	select {
	case channel <- update:
		// Successfully sent update
	default:
		log.Printf("Warning: Updates channel for product %s is full. Dropping update.", ref.ProductID)
	}
}

// GET /api/stock/:productid/updates
func StockUpdates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	productID := ps.ByName("productid")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updatesChannel := GetUpdatesChannel(productID)

	for {
		select {
		case update := <-updatesChannel:
			jsonUpdate, _ := json.Marshal(update)
			fmt.Fprintf(w, "data: %s\n\n", jsonUpdate)
			flusher.Flush()
		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}
