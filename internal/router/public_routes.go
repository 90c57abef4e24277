package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lottery-ticketing/internal/handler"
)

// RegisterUsers registers buyer accounts and phone verification.  Sending
// and checking codes sit behind the token bucket.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, g Guards) {
	users := e.Group("/v1/users")
	users.POST("", u.Register)
	users.GET("", u.List, g.Admin)
	users.PUT("/:id", u.Update, g.Admin)
	users.POST("/send_otp", u.SendOTP, g.Throttle)
	users.POST("/verify_code", u.VerifyCode, g.Throttle)
}

// RegisterLotteries registers the catalogue and checkout.  Public listings
// go through the response cache.
func RegisterLotteries(e *echo.Echo, l *handler.LotteryHandler, co *handler.CheckoutHandler, g Guards) {
	lotteries := e.Group("/v1/lotteries")
	lotteries.POST("", l.Create, g.Admin)
	lotteries.GET("/all", l.All, g.Cache)
	lotteries.GET("/notfinished", l.NotFinished, g.Cache)
	lotteries.GET("/finished", l.Finished, g.Cache)
	lotteries.GET("/mylotteries", l.Mine, g.Admin)
	lotteries.GET("/mypurchases", co.Mine, g.User)
	lotteries.GET("/:id", l.Get)
	lotteries.GET("/:id/activities", l.Activities)
	lotteries.PUT("/:id", l.Update, g.Admin)
	lotteries.DELETE("/:id", l.Delete, g.Admin)

	checkout := e.Group("/v1/checkout")
	checkout.POST("", co.Create, g.User)
	checkout.GET("/:id", co.ByLottery, g.Admin)
}
