package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"infinity/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError maps a service error onto a status and the {"error": ...} body.
func respondError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrValidation):
		status, msg = http.StatusBadRequest, detail(err, domain.ErrValidation)
	case errors.Is(err, domain.ErrInvalidToken):
		status, msg = http.StatusBadRequest, "invalid or expired token"
	case errors.Is(err, domain.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, detail(err, domain.ErrUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		status, msg = http.StatusForbidden, detail(err, domain.ErrForbidden)
	case errors.Is(err, domain.ErrConflict):
		status, msg = http.StatusConflict, detail(err, domain.ErrConflict)
	case errors.Is(err, domain.ErrTransportFailure):
		status, msg = http.StatusBadGateway, "upstream delivery failed"
	case errors.Is(err, domain.ErrStoreUnavailable):
		status, msg = http.StatusServiceUnavailable, "service temporarily unavailable"
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// detail strips the sentinel prefix from "sentinel: detail" messages.
func detail(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
