package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "trim leading whitespace", input: "  Melati Residence", expected: "Melati Residence"},
		{name: "trim trailing whitespace", input: "Melati Residence  ", expected: "Melati Residence"},
		{name: "collapse internal spaces", input: "Melati     Residence", expected: "Melati Residence"},
		{name: "already normalized", input: "Melati Residence", expected: "Melati Residence"},
		{name: "empty string", input: "", expected: ""},
		{name: "only whitespace", input: "   ", expected: ""},
		{name: "tabs and newlines", input: "Melati\t\nResidence", expected: "Melati Residence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeName(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func runResponder(t *testing.T, respond func(c *gin.Context)) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	respond(c)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestErrorResponders(t *testing.T) {
	tests := []struct {
		name    string
		respond func(c *gin.Context, p APIErrorParams)
		status  int
	}{
		{name: "not found", respond: CallErrorNotFound, status: http.StatusNotFound},
		{name: "user error", respond: CallUserError, status: http.StatusBadRequest},
		{name: "conflict", respond: CallConflict, status: http.StatusConflict},
		{name: "too many requests", respond: CallTooManyRequests, status: http.StatusTooManyRequests},
		{name: "server error", respond: CallServerError, status: http.StatusInternalServerError},
		{name: "not authorized", respond: CallUserNotAuthorized, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := runResponder(t, func(c *gin.Context) {
				tt.respond(c, APIErrorParams{Msg: "message", Err: errors.New("cause")})
			})
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, "cause", resp.Error)
			assert.Equal(t, "message", resp.Msg)
		})
	}
}

func TestSuccessResponders(t *testing.T) {
	w, resp := runResponder(t, func(c *gin.Context) {
		CallSuccessOK(c, APISuccessParams{Msg: "ok", Data: map[string]string{"unit_number": "9844510273"}})
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "", resp.Error)

	w, resp = runResponder(t, func(c *gin.Context) {
		CallCreated(c, APISuccessParams{Msg: "created"})
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "created", resp.Msg)
}

// newTestDB opens a uniquely named in-memory SQLite DB and migrates models into it.
func newTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:util_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...))
	}
	return db
}
