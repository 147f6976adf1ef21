package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"infinity/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		err  error
		code int
		body string
	}{
		{domain.ErrNotFound, http.StatusNotFound, "not found"},
		{fmt.Errorf("%w: message is empty", domain.ErrValidation), http.StatusBadRequest, "message is empty"},
		{domain.ErrInvalidToken, http.StatusBadRequest, "invalid or expired token"},
		{fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized), http.StatusUnauthorized, "invalid email or password"},
		{fmt.Errorf("%w: user unavailable", domain.ErrForbidden), http.StatusForbidden, "user unavailable"},
		{fmt.Errorf("%w: already friends", domain.ErrConflict), http.StatusConflict, "already friends"},
		{fmt.Errorf("%w: smtp", domain.ErrTransportFailure), http.StatusBadGateway, "upstream delivery failed"},
		{fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, errors.New("dial tcp")), http.StatusServiceUnavailable, "service temporarily unavailable"},
		{fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, context.DeadlineExceeded), http.StatusGatewayTimeout, "request timed out"},
		{errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			respondError(c, tt.err)

			assert.Equal(t, tt.code, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.body, body["error"])
		})
	}
}

func TestParamID(t *testing.T) {
	r := gin.New()
	r.GET("/x/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	for path, code := range map[string]int{"/x/12": http.StatusOK, "/x/0": http.StatusBadRequest, "/x/abc": http.StatusBadRequest, "/x/-3": http.StatusBadRequest} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, code, w.Code, path)
	}
}

func TestUsernameRule(t *testing.T) {
	RegisterValidators()
	type req struct {
		Username string `binding:"omitempty,username"`
	}
	for name, ok := range map[string]bool{"": true, "zoe_92": true, "Abc": true, "ab": false, "9lives": false, "has space": false} {
		err := binding.Validator.ValidateStruct(req{Username: name})
		assert.Equal(t, ok, err == nil, name)
	}
}
