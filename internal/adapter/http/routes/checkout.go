package routes

import (
	"loja_checkout/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathCheckout = "/checkout"
	PathOrders   = "/orders"
)

func addCheckoutRoutes(rg *gin.RouterGroup, checkoutHandler *handlers.CheckoutHandler, auth gin.HandlerFunc) {
	checkout := rg.Group(PathCheckout, auth)
	{
		checkout.POST("/intents", checkoutHandler.CreateIntent)
		checkout.POST("/payment-options", checkoutHandler.PaymentOptions)
	}

	orders := rg.Group(PathOrders, auth)
	{
		orders.GET("/:order_id", checkoutHandler.GetOrder)
	}
}
