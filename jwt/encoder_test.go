package jwt

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/bobinette/paperbank/errors"
)

func TestEncodeDecode(t *testing.T) {
	ed := NewEncodeDecoder([]byte("some key"))

	token, err := ed.Encode(42)
	if err != nil {
		t.Fatal("could not encode:", err)
	}

	userID, err := ed.Decode(token)
	if err != nil {
		t.Fatal("could not decode:", err)
	}
	if userID != 42 {
		t.Fatalf("incorrect user id: expected 42 got %d", userID)
	}
}

func TestDecode_WrongKey(t *testing.T) {
	token, err := NewEncodeDecoder([]byte("some key")).Encode(42)
	if err != nil {
		t.Fatal("could not encode:", err)
	}

	_, err = NewEncodeDecoder([]byte("another key")).Decode(token)
	if err == nil {
		t.Fatal("expected an error")
	}
	if coded, ok := err.(errors.Error); !ok || coded.Code() != 401 {
		t.Fatalf("expected a 401, got %v", err)
	}
}

func TestEncode_CustomIssuer(t *testing.T) {
	ed := NewEncodeDecoder([]byte("some key"))
	ed.Issuer = "other-service"

	token, err := ed.Encode(42)
	if err != nil {
		t.Fatal("could not encode:", err)
	}

	claims := Claims{}
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte("some key"), nil
	}); err != nil {
		t.Fatal("could not parse token:", err)
	}
	if claims.Issuer != "other-service" {
		t.Fatalf("incorrect issuer: expected other-service got %s", claims.Issuer)
	}
}

func TestDecode_Expired(t *testing.T) {
	ed := NewEncodeDecoder([]byte("some key"))
	ed.TTL = -time.Hour

	token, err := ed.Encode(42)
	if err != nil {
		t.Fatal("could not encode:", err)
	}

	_, err = ed.Decode(token)
	if err == nil {
		t.Fatal("expected an error")
	}
	if coded, ok := err.(errors.Error); !ok || coded.Code() != 401 {
		t.Fatalf("expected a 401, got %v", err)
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := NewEncodeDecoder([]byte("some key")).Decode("not a token")
	if err == nil {
		t.Fatal("expected an error")
	}
}
