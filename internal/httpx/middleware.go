package httpx

import (
	"time"

	"bizdash/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestLogger tags each request with an id and logs completion together
// with the active trace and span ids.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		fields := []logger.Field{
			{Key: "request_id", Value: requestID},
			{Key: "method", Value: c.Request.Method},
			{Key: "path", Value: c.FullPath()},
		}
		span := trace.SpanFromContext(c.Request.Context())
		if sc := span.SpanContext(); sc.IsValid() {
			c.Set("trace_id", sc.TraceID().String())
			c.Set("span_id", sc.SpanID().String())
			fields = append(fields,
				logger.Field{Key: "trace_id", Value: sc.TraceID().String()},
				logger.Field{Key: "span_id", Value: sc.SpanID().String()},
			)
		}

		c.Next()

		fields = append(fields,
			logger.Field{Key: "status", Value: c.Writer.Status()},
			logger.Field{Key: "latency", Value: time.Since(start)},
		)
		if c.Writer.Status() >= 500 {
			log.Error("request completed", fields...)
			return
		}
		log.Info("request completed", fields...)
	}
}

func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
