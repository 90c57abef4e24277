package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lottery-ticketing/internal/model"
)

const principalKey = "principal"

func setPrincipal(c echo.Context, ref model.PrincipalRef) { c.Set(principalKey, ref) }

// PrincipalFrom returns the caller stored by RequireAudience.
func PrincipalFrom(c echo.Context) (model.PrincipalRef, bool) {
	ref, ok := c.Get(principalKey).(model.PrincipalRef)
	return ref, ok && ref.ID != 0
}

// subject identifies the caller for throttling keys: "<audience>:<id>" or
// "anon" before authentication.
func subject(c echo.Context) string {
	ref, ok := PrincipalFrom(c)
	if !ok {
		return "anon"
	}
	return string(ref.Audience) + ":" + strconv.FormatUint(ref.ID, 10)
}
