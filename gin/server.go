package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/paperbank"
	"github.com/bobinette/paperbank/auth"
	"github.com/bobinette/paperbank/jwt"
	"github.com/bobinette/paperbank/papers"
)

func New(
	service *papers.Service,
	users *auth.UserService,
	store paperbank.UserStore,
	googleClient *auth.GoogleClient,
	encoder *jwt.EncodeDecoder,
) (http.Handler, error) {
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept-Language, Authorization, Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
		}
		c.Next()
	})

	// Unknown route
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"message": "Page not found"})
	})

	// Ping
	router.GET("/paperbank/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, map[string]string{"data": "ok"})
	})

	authenticator := &Authenticator{Decoder: encoder, Store: store}

	// Papers
	paperHandler := PaperHandler{Service: service, Authenticator: authenticator}
	paperHandler.RegisterRoutes(router)

	// Auth
	authHandler := AuthHandler{GoogleClient: googleClient, Users: users, Encoder: encoder, Authenticator: authenticator}
	authHandler.RegisterRoutes(router)

	return router, nil
}
