package jwt

import (
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/bobinette/paperbank/errors"
)

const (
	DefaultIssuer = "paperbank"

	// DefaultTTL keeps a login valid for two months.
	DefaultTTL = 60 * 24 * time.Hour
)

type EncodeDecoder struct {
	key []byte

	// Issuer and TTL override the token defaults when set.
	Issuer string
	TTL    time.Duration
}

type Claims struct {
	UserID int `json:"user_id"`
	jwt.StandardClaims
}

func NewEncodeDecoder(key []byte) *EncodeDecoder {
	return &EncodeDecoder{
		key: key,
	}
}

func (e *EncodeDecoder) Encode(userID int) (string, error) {
	issuer := e.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	ttl := e.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	claims := Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(ttl).Unix(),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(e.key)
}

func (e *EncodeDecoder) Decode(bearer string) (int, error) {
	claims := Claims{}

	token, err := jwt.ParseWithClaims(bearer, &claims, func(token *jwt.Token) (interface{}, error) {
		return e.key, nil
	})
	if err != nil {
		return 0, errors.New("invalid token", errors.Unauthorized(), errors.WithCause(err))
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims.UserID, nil
	}

	return 0, errors.New("could not get claims", errors.Unauthorized())
}
