package handlers

import (
	"errors"
	"log"
	"net/http"

	request "loja_checkout/internal/adapter/http/dto/request"
	response "loja_checkout/internal/adapter/http/dto/response"
	"loja_checkout/internal/adapter/http/middleware"
	"loja_checkout/internal/usecase"
	"loja_checkout/pkg"

	"github.com/gin-gonic/gin"
)

const HeaderIdempotencyKey = "Idempotency-Key"

var errInvalidCheckoutPayload = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)

// CheckoutHandler exposes the checkout workflow over HTTP.
type CheckoutHandler struct {
	usecase usecase.ICheckoutUseCase
}

func NewCheckoutHandler(uc usecase.ICheckoutUseCase) *CheckoutHandler {
	return &CheckoutHandler{usecase: uc}
}

// CreateIntent godoc
// @Summary      Create a checkout intent
// @Description  Validates the cart, resolves the payment policy and persists a PENDING order.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                         false  "Replay protection key"
// @Param        payload          body    request.CheckoutIntentRequest  true   "Checkout intent"
// @Success      201  {object}  response.CheckoutIntentResponse
// @Success      200  {object}  response.CheckoutIntentResponse  "Replayed"
// @Failure      400  {object}  pkg.HTTPError
// @Failure      401  {object}  pkg.HTTPError
// @Failure      500  {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /checkout/intents [post]
func (h *CheckoutHandler) CreateIntent(c *gin.Context) {
	requestID := c.GetString(middleware.ContextRequestID)
	var payload request.CheckoutIntentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("[checkout][handler] invalid payload request_id=%s err=%v", requestID, err)
		c.JSON(errInvalidCheckoutPayload.HTTPStatus, errInvalidCheckoutPayload.ToHTTPError())
		return
	}

	in := payload.ToInput(middleware.Buyer(c), c.GetHeader(HeaderIdempotencyKey))
	if len(in.IdempotencyKey) > request.MaxIdempotencyKeyLength {
		log.Printf("[checkout][handler] idempotency key too long request_id=%s length=%d", requestID, len(in.IdempotencyKey))
		c.JSON(errInvalidCheckoutPayload.HTTPStatus, errInvalidCheckoutPayload.ToHTTPError())
		return
	}
	res, err := h.usecase.CreateIntent(c.Request.Context(), in)
	if err != nil {
		log.Printf("[checkout][handler] create-intent failed request_id=%s err=%v", requestID, err)
		appErr := mapCheckoutError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	log.Printf("[checkout][handler] create-intent success request_id=%s order_id=%s replayed=%t", requestID, res.Order.ID, res.Replayed)
	c.JSON(status, response.FromOrderIntent(res))
}

// PaymentOptions godoc
// @Summary      Preview payment options
// @Description  Resolves the payment policy for a cart without creating an order.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        payload  body      request.PaymentOptionsRequest  true  "Cart"
// @Success      200      {object}  response.PaymentOptionsResponse
// @Failure      400      {object}  pkg.HTTPError
// @Failure      401      {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /checkout/payment-options [post]
func (h *CheckoutHandler) PaymentOptions(c *gin.Context) {
	var payload request.PaymentOptionsRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidCheckoutPayload.HTTPStatus, errInvalidCheckoutPayload.ToHTTPError())
		return
	}

	res, err := h.usecase.PaymentOptions(c.Request.Context(), middleware.Buyer(c), payload.ToCartItems())
	if err != nil {
		appErr := mapCheckoutError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPaymentOptions(res))
}

// GetOrder godoc
// @Summary      Get an order
// @Description  Returns an order of the authenticated buyer with its payment attempts.
// @Tags         orders
// @Produce      json
// @Param        order_id  path      string  true  "Order ID"
// @Success      200       {object}  response.OrderDetailsResponse
// @Failure      401       {object}  pkg.HTTPError
// @Failure      404       {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /orders/{order_id} [get]
func (h *CheckoutHandler) GetOrder(c *gin.Context) {
	orderID := c.Param("order_id")

	details, err := h.usecase.GetOrder(c.Request.Context(), middleware.Buyer(c), orderID)
	if err != nil {
		log.Printf("[checkout][handler] get-order failed order_id=%s err=%v", orderID, err)
		appErr := mapCheckoutError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromOrderDetails(details))
}

type checkoutErrorMapping struct {
	kind    error
	code    string
	message string
	status  int
}

var checkoutErrorMappings = []checkoutErrorMapping{
	{usecase.ErrUnauthenticated, "UNAUTHENTICATED", "Authentication required", http.StatusUnauthorized},
	{usecase.ErrInvalidPaymentMethod, "INVALID_PAYMENT_METHOD", "Unknown payment method", http.StatusBadRequest},
	{usecase.ErrEmptyCart, "EMPTY_CART", "Cart is empty", http.StatusBadRequest},
	{usecase.ErrCartTooLarge, "CART_TOO_LARGE", "Cart has too many items", http.StatusBadRequest},
	{usecase.ErrInvalidQuantity, "INVALID_QUANTITY", "Invalid item quantity", http.StatusBadRequest},
	{usecase.ErrUnknownProducts, "UNKNOWN_PRODUCTS", "Some products are unknown or inactive", http.StatusBadRequest},
	{usecase.ErrInsufficientStock, "INSUFFICIENT_STOCK", "Insufficient stock", http.StatusBadRequest},
	{usecase.ErrInvalidAmount, "INVALID_AMOUNT", "Order amount must be positive", http.StatusBadRequest},
	{usecase.ErrPaymentMethodNotAllowed, "PAYMENT_METHOD_NOT_ALLOWED", "Payment method not allowed for this order", http.StatusBadRequest},
	{usecase.ErrMissingAddress, "MISSING_ADDRESS", "A delivery address is required", http.StatusBadRequest},
	{usecase.ErrInvalidAddress, "INVALID_ADDRESS", "Invalid delivery address", http.StatusBadRequest},
	{usecase.ErrInvalidInvoiceTerm, "INVALID_INVOICE_TERM", "Invoice term not offered", http.StatusBadRequest},
	{usecase.ErrOrderNotFound, "ORDER_NOT_FOUND", "Order not found", http.StatusNotFound},
	{usecase.ErrOrderAllocationFailed, "ORDER_ALLOCATION_FAILED", "Could not allocate an order number, try again", http.StatusInternalServerError},
}

func mapCheckoutError(err error) *pkg.AppError {
	for _, m := range checkoutErrorMappings {
		if !errors.Is(err, m.kind) {
			continue
		}
		appErr := pkg.NewDomainErrorSimple(m.code, m.message, m.status)
		var ce *usecase.CheckoutError
		if errors.As(err, &ce) {
			if ce.Message != "" {
				appErr.Message = ce.Message
			}
			if len(ce.Details) > 0 {
				appErr = appErr.WithDetails(ce.Details...)
			}
		}
		return appErr
	}
	return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
}
