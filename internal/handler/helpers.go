package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-service/internal/apperror"
	"crm-service/prometheus"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

type pageParams struct {
	Page     int
	PageSize int
}

// pagination reads page/page_size query parameters, clamped to the
// service-wide bounds.
func pagination(c echo.Context) pageParams {
	p := pageParams{Page: 1, PageSize: defaultPageSize}
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	if v := c.QueryParam("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.PageSize = n
		}
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

func (p pageParams) apply(q *gorm.DB) *gorm.DB {
	return q.Offset((p.Page - 1) * p.PageSize).Limit(p.PageSize)
}

// listEnvelope is the response shape for collection endpoints. Count is the
// total matching rows before pagination.
func listEnvelope(c echo.Context, items any, count int64, p pageParams) error {
	return c.JSON(http.StatusOK, echo.Map{
		"value":     items,
		"count":     count,
		"page":      p.Page,
		"page_size": p.PageSize,
	})
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperror.Validationf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

// applyExpand turns expand=a,b query values into preloads. Only associations
// present in allowed are honored; unknown names are rejected so typos fail
// loudly instead of silently returning thin payloads.
func applyExpand(q *gorm.DB, c echo.Context, allowed map[string]string) (*gorm.DB, error) {
	raw := c.QueryParam("expand")
	if raw == "" {
		return q, nil
	}
	for _, name := range strings.Split(raw, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		assoc, ok := allowed[name]
		if !ok {
			return nil, apperror.Validationf("unknown expand %q", name)
		}
		q = q.Preload(assoc)
	}
	return q, nil
}

// applySort turns sort=field,-other query values into ORDER BY clauses. The
// allowed map whitelists query names to column names; a leading '-' sorts
// descending.
func applySort(q *gorm.DB, c echo.Context, allowed map[string]string) (*gorm.DB, error) {
	raw := c.QueryParam("sort")
	if raw == "" {
		return q, nil
	}
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		desc := strings.HasPrefix(name, "-")
		name = strings.TrimPrefix(name, "-")
		col, ok := allowed[strings.ToLower(name)]
		if !ok {
			return nil, apperror.Validationf("unknown sort field %q", name)
		}
		if desc {
			col += " DESC"
		}
		q = q.Order(col)
	}
	return q, nil
}

// writeError maps gateway errors onto HTTP responses. Anything outside the
// known kinds is reported as a generic 500 so internals never leak.
func writeError(c echo.Context, log *zap.Logger, entity, action string, err error) error {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		log.Warn("Request validation failed", zap.String("action", action), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, apperror.ErrNotFound):
		log.Warn("Record not found", zap.String("action", action), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, apperror.ErrConflict):
		log.Warn("Concurrent modification conflict", zap.String("action", action), zap.Error(err))
		prometheus.RecordConflict(entity)
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "the record was modified by another request, re-read and retry",
		})
	default:
		log.Error("Request failed", zap.String("action", action), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "An error occurred while " + action})
	}
}

func recordOp(entity, op string) {
	prometheus.RecordEntityOperation(entity, op)
}
