package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/bobinette/paperbank"
	"github.com/bobinette/paperbank/errors"
)

// GoogleUser is the profile returned by the Google userinfo endpoint.
type GoogleUser struct {
	GoogleID string `json:"sub"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Avatar   string `json:"picture"`
}

type UserService struct {
	store paperbank.UserStore

	signupCredits int
	// Emails must belong to one of those domains to log in. Empty
	// means any domain is accepted.
	allowedDomains []string

	now func() time.Time
}

func NewUserService(store paperbank.UserStore, signupCredits int, allowedDomains []string) *UserService {
	return &UserService{
		store:          store,
		signupCredits:  signupCredits,
		allowedDomains: allowedDomains,
		now:            time.Now,
	}
}

// Login retrieves the user matching the Google profile, creating it
// with the signup credits when it is the first visit. The profile
// fields are refreshed on every login.
func (s *UserService) Login(g GoogleUser) (*paperbank.User, error) {
	if g.GoogleID == "" {
		return nil, errors.New("no google id", errors.BadRequest())
	}

	if err := s.checkDomain(g.Email); err != nil {
		return nil, err
	}

	user, err := s.store.GetByGoogleID(g.GoogleID)
	if err != nil {
		return nil, err
	}

	if user == nil && g.Email != "" {
		// Account may predate the Google link.
		user, err = s.store.GetByEmail(g.Email)
		if err != nil {
			return nil, err
		}
	}

	if user == nil {
		user = &paperbank.User{
			Role:    paperbank.RoleUser,
			Credits: s.signupCredits,
		}
	}

	user.Name = g.Name
	user.Email = g.Email
	user.GoogleID = g.GoogleID
	user.Avatar = g.Avatar
	user.LastLogin = s.now()

	if err := s.store.Upsert(user); err != nil {
		return nil, err
	}

	return user, nil
}

// Me returns the current user.
func (s *UserService) Me(id int) (*paperbank.User, error) {
	user, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New(fmt.Sprintf("<User %d> not found", id), errors.NotFound())
	}
	return user, nil
}

func (s *UserService) List() ([]*paperbank.User, error) {
	return s.store.List()
}

func (s *UserService) checkDomain(email string) error {
	if len(s.allowedDomains) == 0 {
		return nil
	}

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return errors.New("invalid email", errors.Forbidden())
	}

	domain := email[at+1:]
	for _, allowed := range s.allowedDomains {
		if strings.EqualFold(domain, allowed) {
			return nil
		}
	}

	return errors.New("email domain not allowed", errors.Forbidden())
}
