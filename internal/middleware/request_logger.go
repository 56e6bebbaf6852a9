package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const CtxLoggerKey = "logger" // *zap.Logger

// リクエスト単位のloggerをcontextへ入れて、終了時に1行出す。
// RequestIDミドルウェアより後ろに置くこと。
func RequestLogger(base *zap.Logger) echo.MiddlewareFunc {
	if base == nil {
		base = zap.NewNop()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			log := base.With(zap.String("request_id", reqID))
			c.Set(CtxLoggerKey, log)

			err := next(c)
			if err != nil {
				// echoのエラーハンドラへ渡してstatusを確定させる
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}

			switch {
			case status >= 500:
				log.Error("request", fields...)
			case status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}

			return nil
		}
	}
}

// contextのloggerを返す。無ければNop
func Logger(c echo.Context) *zap.Logger {
	if l, ok := c.Get(CtxLoggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}
