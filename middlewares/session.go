package middlewares

import (
	"kukuhub/config"
	"kukuhub/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by SessionMiddleware when a valid session cookie is
// present. Handlers decide themselves whether a missing principal is fatal,
// matching the optional-auth behavior of order creation (guest checkout).
const (
	CtxUserID   = "userID"
	CtxSellerID = "sellerID"
	CtxAdminID  = "adminID"
)

// SessionMiddleware parses the session cookie, if any, and exposes the
// authenticated principal in the gin context. It never aborts the request.
func SessionMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(cfg.SessionCookie)
		if err == nil && cookie != "" {
			role, id, err := utils.ParseSessionToken(cfg.JWTSecret, cookie)
			if err == nil {
				switch role {
				case utils.RoleUser:
					c.Set(CtxUserID, id)
				case utils.RoleSeller:
					c.Set(CtxSellerID, id)
				case utils.RoleAdmin:
					c.Set(CtxAdminID, id)
				}
			}
		}
		c.Next()
	}
}

func SessionUserID(c *gin.Context) (int, bool) {
	id, ok := c.Get(CtxUserID)
	if !ok {
		return 0, false
	}
	return id.(int), true
}

func SessionSellerID(c *gin.Context) (int, bool) {
	id, ok := c.Get(CtxSellerID)
	if !ok {
		return 0, false
	}
	return id.(int), true
}

func SessionAdminID(c *gin.Context) (int, bool) {
	id, ok := c.Get(CtxAdminID)
	if !ok {
		return 0, false
	}
	return id.(int), true
}
