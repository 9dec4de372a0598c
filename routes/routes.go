package routes

import (
	"veloura/cart"
	"veloura/checkout"
	"veloura/coupon"
	"veloura/gateway"
	"veloura/middleware"
	"veloura/order"
	"veloura/products"
	"veloura/ratelim"
	"veloura/stock"

	"github.com/julienschmidt/httprouter"
)

func RoutesWrapper(router *httprouter.Router, rateLimiter *ratelim.RateLimiter) {
	AddCartRoutes(router, rateLimiter)
	AddCouponRoutes(router, rateLimiter)
	AddOrderRoutes(router, rateLimiter)
	AddProductRoutes(router, rateLimiter)
}

func AddCartRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter) {
	cartHandlers := cart.NewHandlers(products.NewCatalog())
	stockHandlers := stock.NewHandlers(stock.NewLedger(stock.NewMongoStore()))

	user := middleware.Chain(
		rateLimiter.Limit,
		middleware.Authenticate,
		middleware.RequireRoles("user"),
	)

	router.POST("/api/cart/add-to-cart", user(cartHandlers.AddToCart))
	router.DELETE("/api/cart/remove-from-cart", user(cartHandlers.RemoveFromCart))
	router.PATCH("/api/cart/update-cart-quantity", user(cartHandlers.UpdateCartQuantity))
	router.GET("/api/cart/get-cart", user(cartHandlers.GetCart))
	router.POST("/api/cart/clear-cart", user(cartHandlers.ClearCart))
	router.GET("/api/cart/check-stock", user(stockHandlers.CheckStock))

	// Availability is advisory and public: storefronts poll it pre-login.
	router.POST("/api/cart/check-availability", rateLimiter.Limit(stockHandlers.CheckAvailability))
}

func AddCouponRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter) {
	user := middleware.Chain(
		rateLimiter.Limit,
		middleware.Authenticate,
		middleware.RequireRoles("user"),
	)
	admin := middleware.Chain(
		rateLimiter.Limit,
		middleware.Authenticate,
		middleware.RequireRoles("admin"),
	)

	router.POST("/api/coupon/apply", user(coupon.ApplyCoupon))
	router.PATCH("/api/coupon", user(coupon.RemoveCoupon))

	router.POST("/api/coupon", admin(coupon.CreateCoupon))
	router.PATCH("/api/coupon/:id", admin(coupon.UpdateCoupon))
	router.DELETE("/api/coupon/:id", admin(coupon.DeleteCoupon))
	router.GET("/api/coupon/search", admin(coupon.SearchCoupons))
}

func AddOrderRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter) {
	ledger := stock.NewLedger(stock.NewMongoStore())
	checkoutService := checkout.NewService(products.NewCatalog(), ledger, gateway.NewClient())
	manager := order.NewManager(ledger)

	user := middleware.Chain(
		rateLimiter.Limit,
		middleware.Authenticate,
		middleware.RequireRoles("user"),
	)
	admin := middleware.Chain(
		rateLimiter.Limit,
		middleware.Authenticate,
		middleware.RequireRoles("admin"),
	)

	router.POST("/api/order/placeorder", user(checkoutService.PlaceOrder))
	router.POST("/api/order/paymentIntent", user(checkoutService.PaymentIntent))
	router.POST("/api/order/paymentVerify", user(checkoutService.PaymentVerify))
	router.POST("/api/order/cancel-order/:orderId", user(manager.CancelOrder))
	router.GET("/api/order/get-orders", user(order.GetOrders))
	router.GET("/api/order/invoice/:orderId", user(order.Invoice))

	router.PATCH("/api/order/change-status/:orderId", admin(manager.ChangeStatus))
	router.GET("/api/order/get-order-stats", admin(order.GetOrderStats))
}

func AddProductRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/product/:productid", rateLimiter.Limit(products.GetProduct))
	router.GET("/api/stock/:productid/updates", stock.StockUpdates)
}
