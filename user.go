package paperbank

import (
	"time"
)

type SigningKey struct {
	Key string `json:"k"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	GoogleID string `json:"googleID"`
	Avatar   string `json:"avatar,omitempty"`

	Role Role `json:"role"`

	Credits       int `json:"credits"`
	UploadCount   int `json:"uploadCount"`
	DownloadCount int `json:"downloadCount"`

	CreatedAt time.Time `json:"createdAt"`
	LastLogin time.Time `json:"lastLogin"`
}

// UserStore persists users. Update runs fn on the stored user inside a
// single store transaction and writes the result back only when fn
// returns nil; it is the atomic boundary the credit ledger relies on
// for check-then-decrement operations.
type UserStore interface {
	Get(int) (*User, error)
	GetByGoogleID(string) (*User, error)
	GetByEmail(string) (*User, error)
	Upsert(*User) error
	Update(int, func(*User) error) error
	List() ([]*User, error)
}
