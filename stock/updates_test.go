package stock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUpdatesChannelReturnsOneChannelPerProduct(t *testing.T) {
	const subscribers = 16

	chs := make([]chan map[string]any, subscribers)
	var wg sync.WaitGroup
	for i := 0; i < subscribers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chs[i] = GetUpdatesChannel("prod-race")
		}(i)
	}
	wg.Wait()

	for i := 1; i < subscribers; i++ {
		require.Equal(t, chs[0], chs[i], "concurrent subscribers must share one channel")
	}
}

func TestBroadcastStockUpdateReachesSubscriber(t *testing.T) {
	ch := GetUpdatesChannel("prod-bcast")

	BroadcastStockUpdate(UnitRef{ProductID: "prod-bcast", VariantID: "v1"}, 7)

	select {
	case update := <-ch:
		assert.Equal(t, "stock_update", update["type"])
		assert.Equal(t, "v1", update["variantId"])
		assert.Equal(t, 7, update["remaining"])
	default:
		t.Fatal("expected a buffered update")
	}
}
