package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"userservice-backend/internal/auth"
	"userservice-backend/internal/database"
	"userservice-backend/internal/metrics"
)

const (
	// opTimeout bounds every store call made while serving a request
	opTimeout = 5 * time.Second
	// maxBodyBytes caps request bodies
	maxBodyBytes = 1 << 20

	serviceName = "user-service"
)

var errNoData = errors.New("no data provided")

// Handler serves the profile and preferences routes
type Handler struct {
	store   database.Store
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

// NewHandler creates a handler over store. m may be nil.
func NewHandler(store database.Store, m *metrics.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:   store,
		metrics: m,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// healthCheck handles GET /health
func (h *Handler) healthCheck(c echo.Context) error {
	ctx, cancel := h.opContext(c)
	defer cancel()

	err := h.store.Ping(ctx)
	if h.metrics != nil {
		h.metrics.SetStoreUp(err == nil)
	}
	if err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

func (h *Handler) opContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), opTimeout)
}

// internalError logs err with the failing operation and answers with a
// generic 500 body.
func (h *Handler) internalError(c echo.Context, op string, err error) error {
	h.log.Error(op+" failed",
		zap.Error(err),
		zap.String("username", auth.GetUsernameFromContext(c)),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
	)
	return errorJSON(c, http.StatusInternalServerError, "Internal server error")
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

func messageJSON(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, map[string]string{"message": message})
}

// decodeObject reads the request body as a JSON object, keeping numbers as
// json.Number so integers and floats stay distinguishable. An absent,
// unparseable, non-object or empty body is errNoData.
func decodeObject(c echo.Context) (map[string]any, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errNoData
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || len(payload) == 0 {
		return nil, errNoData
	}
	return payload, nil
}

// ErrorHandler renders errors that escape the handlers, such as unknown
// routes, wrong methods and recovered panics, as {"error": message}.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Internal server error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if status < http.StatusInternalServerError {
				if m, ok := he.Message.(string); ok {
					message = m
				} else {
					message = http.StatusText(status)
				}
			}
		}
		if status >= http.StatusInternalServerError {
			log.Error("unhandled error", zap.Error(err), zap.String("path", c.Path()))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, map[string]string{"error": message})
		}
		if err != nil {
			log.Error("failed to write error response", zap.Error(err))
		}
	}
}
