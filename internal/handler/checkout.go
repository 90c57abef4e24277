package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/service"
)

// HeaderIdempotencyKey lets a client retry a checkout without buying twice.
const HeaderIdempotencyKey = "Idempotency-Key"

// CheckoutAPI is the part of *service.CheckoutService the endpoints use.
type CheckoutAPI interface {
	Purchase(ctx context.Context, userID, lotteryID uint64, qty int, idemKey string) (service.CheckoutResult, error)
	ListByLottery(ctx context.Context, lotteryID uint64) ([]model.PurchaseDetail, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.PurchaseDetail, error)
}

type CheckoutHandler struct {
	Checkout CheckoutAPI
}

func NewCheckoutHandler(checkout CheckoutAPI) *CheckoutHandler {
	return &CheckoutHandler{Checkout: checkout}
}

type checkoutReq struct {
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	LotteryID uint64 `json:"lotteryId" validate:"required,min=1"`
}

// Create buys tickets for the signed-in user, merging into any earlier
// purchase of the same lottery.
func (h *CheckoutHandler) Create(c echo.Context) error {
	ref, err := caller(c)
	if err != nil {
		return err
	}
	var req checkoutReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Checkout.Purchase(ctx, ref.ID, req.LotteryID, req.Quantity, c.Request().Header.Get(HeaderIdempotencyKey))
	if err != nil {
		return err
	}
	if res.Replayed {
		c.Response().Header().Set("Idempotent-Replayed", "true")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true})
}

// ByLottery lists the purchases of a lottery with their buyers.
func (h *CheckoutHandler) ByLottery(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Checkout.ListByLottery(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"checkouts": list})
}

// Mine lists the signed-in user's purchases with their lotteries.
func (h *CheckoutHandler) Mine(c echo.Context) error {
	ref, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Checkout.ListByUser(ctx, ref.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"purchases": list})
}
