package gin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/paperbank"
	"github.com/bobinette/paperbank/errors"
)

type HandlerFunc func(*gin.Context) (interface{}, error)

func JSONFormatter(next HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := next(c)
		if err != nil {
			code := http.StatusInternalServerError
			if err, ok := err.(errors.Error); ok {
				code = err.Code()
			}

			c.JSON(code, map[string]interface{}{
				"message": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, res)
	}
}

type TokenDecoder interface {
	Decode(string) (int, error)
}

type Authenticator struct {
	Decoder TokenDecoder
	Store   paperbank.UserStore
}

func (a *Authenticator) Authenticate(next HandlerFunc) HandlerFunc {
	return func(c *gin.Context) (interface{}, error) {
		user, err := a.user(c)
		if err != nil {
			return nil, err
		}

		c.Set("user", user)
		return next(c)
	}
}

// user resolves the bearer token of the request. Handlers that cannot
// go through Authenticate, like the download stream, call it directly.
func (a *Authenticator) user(c *gin.Context) (*paperbank.User, error) {
	token := c.Request.Header.Get("Authorization")
	if len(token) <= 6 || strings.ToLower(token[:7]) != "bearer " {
		return nil, errors.New("no token found", errors.Unauthorized())
	}

	userID, err := a.Decoder.Decode(token[7:])
	if err != nil {
		return nil, errors.New("invalid token", errors.Unauthorized(), errors.WithCause(err))
	}

	user, err := a.Store.Get(userID)
	if err != nil {
		return nil, errors.New("could not get user", errors.WithCause(err))
	} else if user == nil {
		return nil, errors.New("unknown user", errors.Unauthorized())
	}

	return user, nil
}

func userFromContext(c *gin.Context) (*paperbank.User, error) {
	u, ok := c.Get("user")
	if !ok {
		return nil, errors.New("could not extract user", errors.Unauthorized())
	}

	user, ok := u.(*paperbank.User)
	if !ok {
		return nil, errors.New("could not retrieve user", errors.Unauthorized())
	}

	return user, nil
}
