package router

import (
	"context"
	"time"

	"resume-qa-go/internal/logger"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeaderRequestID 请求ID头
const HeaderRequestID = "X-Request-ID"

// RequestID 读取或生成请求ID，写回响应头，并把带 request_id 字段的 logger 放入 context
func RequestID(base *zerolog.Logger) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		requestID := string(c.Request.Header.Peek(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Response.Header.Set(HeaderRequestID, requestID)

		parent := base
		if parent == nil {
			parent = logger.Ctx(ctx)
		}
		reqLogger := parent.With().Str("request_id", requestID).Logger()
		c.Next(reqLogger.WithContext(ctx))
	}
}

// AccessLog 记录请求方法、路径、状态码与耗时
func AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)

		status := c.Response.StatusCode()
		event := logger.Ctx(ctx).Info()
		if status >= 500 {
			event = logger.Ctx(ctx).Error()
		} else if status >= 400 {
			event = logger.Ctx(ctx).Warn()
		}
		event.
			Str("method", string(c.Method())).
			Str("path", string(c.Path())).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("HTTP请求完成")
	}
}
