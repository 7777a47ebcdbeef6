package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"

	"github.com/ariebrainware/rental-unit-registry/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DBKey is the gin context key holding the *gorm.DB.
const DBKey = "db"

func setCorsHeaders(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE, PATCH")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization")
	c.Writer.Header().Set("Access-Control-Max-Age", "86400")
	c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	c.Writer.Header().Set("Content-Type", "application/json")
}

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setCorsHeaders(c)

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// DatabaseMiddleware makes db available to handlers through GetDB.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DBKey, db)
		c.Next()
	}
}

// GetDB returns the DB set by DatabaseMiddleware, or nil.
func GetDB(c *gin.Context) *gorm.DB {
	v, ok := c.Get(DBKey)
	if !ok {
		return nil
	}
	db, _ := v.(*gorm.DB)
	return db
}

// tokenValidator reports whether the request carries the expected Authorization
// header, aborting with 401 when it does not. Preflight requests always pass.
func tokenValidator(c *gin.Context, expected string) bool {
	if c.Request.Method == http.MethodOptions {
		return true
	}
	got := c.GetHeader("Authorization")
	if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1 {
		return true
	}
	reason := "invalid token"
	if got == "" {
		reason = "missing token"
	}
	util.LogUnauthorizedAccess(c.ClientIP(), c.Request.URL.Path, reason)
	util.CallUserNotAuthorized(c, util.APIErrorParams{
		Msg: "Unauthorized",
		Err: fmt.Errorf("%s", reason),
	})
	c.Abort()
	return false
}

// ValidateAPIToken guards registry writes with the static service token in
// APITOKEN, sent as "Authorization: Bearer <token>". It is a no-op when APITOKEN
// is unset so local development needs no token.
func ValidateAPIToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := os.Getenv("APITOKEN")
		if token == "" {
			c.Next()
			return
		}
		if !tokenValidator(c, "Bearer "+token) {
			return
		}
		c.Next()
	}
}
