package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/repository"
	"github.com/iliyamo/lottery-ticketing/internal/service"
)

// LotteryHandler serves the lottery catalogue.  Listings are public, edits
// are for admins.
type LotteryHandler struct {
	Lotteries *service.LotteryService
}

func NewLotteryHandler(lotteries *service.LotteryService) *LotteryHandler {
	return &LotteryHandler{Lotteries: lotteries}
}

type createLotteryReq struct {
	NameEn         string `json:"name_en" validate:"required"`
	NameKu         string `json:"name_ku"`
	NameAr         string `json:"name_ar"`
	ContentEn      string `json:"content_en" validate:"required"`
	ContentKu      string `json:"content_ku"`
	ContentAr      string `json:"content_ar"`
	PricePerTicket int64  `json:"price_per_ticket" validate:"required,gt=0"`
	Deadline       string `json:"deadline" validate:"required"`
	Category       uint64 `json:"category" validate:"required"`
	Image          string `json:"image" validate:"required"`
}

type updateLotteryReq struct {
	NameEn    *string `json:"name_en"`
	NameKu    *string `json:"name_ku"`
	NameAr    *string `json:"name_ar"`
	ContentEn *string `json:"content_en"`
	ContentKu *string `json:"content_ku"`
	ContentAr *string `json:"content_ar"`
	Deadline  *string `json:"deadline"`
	Category  *uint64 `json:"category"`
	Image     *string `json:"image"`
}

func (h *LotteryHandler) Create(c echo.Context) error {
	ref, err := caller(c)
	if err != nil {
		return err
	}
	var req createLotteryReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	deadline, err := parseTime("deadline", req.Deadline)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	l, err := h.Lotteries.Create(ctx, ref.ID, model.Lottery{
		NameEn:         req.NameEn,
		NameKu:         req.NameKu,
		NameAr:         req.NameAr,
		ContentEn:      req.ContentEn,
		ContentKu:      req.ContentKu,
		ContentAr:      req.ContentAr,
		PricePerTicket: req.PricePerTicket,
		Deadline:       deadline,
		CategoryID:     req.Category,
		Image:          req.Image,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"lottery": l})
}

// All lists every live lottery.
func (h *LotteryHandler) All(c echo.Context) error { return h.list(c, h.Lotteries.List) }

// NotFinished lists lotteries still accepting purchases.
func (h *LotteryHandler) NotFinished(c echo.Context) error { return h.list(c, h.Lotteries.ListOpen) }

// Finished lists lotteries past their deadline.
func (h *LotteryHandler) Finished(c echo.Context) error { return h.list(c, h.Lotteries.ListFinished) }

// Mine lists lotteries authored by the calling admin.
func (h *LotteryHandler) Mine(c echo.Context) error {
	ref, err := caller(c)
	if err != nil {
		return err
	}
	return h.list(c, func(ctx context.Context) ([]model.Lottery, error) {
		return h.Lotteries.ListByAuthor(ctx, ref.ID)
	})
}

func (h *LotteryHandler) list(c echo.Context, fetch func(context.Context) ([]model.Lottery, error)) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := fetch(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"lotteries": list})
}

func (h *LotteryHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	l, err := h.Lotteries.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"lottery": l})
}

// Activities returns every checkout made on the lottery, oldest first.
func (h *LotteryHandler) Activities(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	acts, err := h.Lotteries.Activities(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"activities": acts})
}

func (h *LotteryHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateLotteryReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	upd := repository.LotteryUpdate{
		NameEn:     req.NameEn,
		NameKu:     req.NameKu,
		NameAr:     req.NameAr,
		ContentEn:  req.ContentEn,
		ContentKu:  req.ContentKu,
		ContentAr:  req.ContentAr,
		CategoryID: req.Category,
		Image:      req.Image,
	}
	if req.Deadline != nil {
		d, err := parseTime("deadline", *req.Deadline)
		if err != nil {
			return err
		}
		upd.Deadline = &d
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	l, err := h.Lotteries.Update(ctx, id, upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"lottery": l})
}

func (h *LotteryHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Lotteries.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Lottery deleted successfully"})
}
