package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/paperbank/auth"
	"github.com/bobinette/paperbank/jwt"
)

type AuthHandler struct {
	GoogleClient *auth.GoogleClient
	Users        *auth.UserService
	Encoder      *jwt.EncodeDecoder

	Authenticator *Authenticator
}

func (h *AuthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/paperbank/auth", h.AuthURL)
	router.GET("/paperbank/auth/google", JSONFormatter(h.Google))
	router.GET("/paperbank/auth/me", JSONFormatter(h.Authenticator.Authenticate(h.Me)))
}

func (h *AuthHandler) AuthURL(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"url": h.GoogleClient.LoginURL(),
	})
}

func (h *AuthHandler) Google(c *gin.Context) (interface{}, error) {
	state := c.Query("state")
	code := c.Query("code")

	googleUser, err := h.GoogleClient.ExchangeToken(state, code)
	if err != nil {
		return nil, err
	}

	user, err := h.Users.Login(googleUser)
	if err != nil {
		return nil, err
	}

	token, err := h.Encoder.Encode(user.ID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"access_token": token,
		"user":         user,
	}, nil
}

func (h *AuthHandler) Me(c *gin.Context) (interface{}, error) {
	user, err := userFromContext(c)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": user,
	}, nil
}
