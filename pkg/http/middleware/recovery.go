package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "StockLens/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PanicError is what Recover hands to the error handler in place of a
// handler panic.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (p *PanicError) Error() string { return fmt.Sprintf("panic: %v", p.Value) }

// Recover converts a handler panic into a *PanicError and logs it with the
// stack. http.ErrAbortHandler is re-panicked so net/http can drop the
// connection.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				pe := &PanicError{Value: r, Stack: debug.Stack()}
				l.Error("handler panic",
					applogger.String("method", c.Request().Method),
					applogger.String("route", routeLabel(c)),
					applogger.Any("panic", r),
					applogger.String("stack", string(pe.Stack)),
				)
				err = pe
			}()
			return next(c)
		}
	}
}
