package inmem

import (
	"fmt"
	"sync"

	"github.com/bobinette/paperbank"
	"github.com/bobinette/paperbank/errors"
)

// UserStore keeps users in memory. It backs the tests of the services
// that only need a paperbank.UserStore, and the dev environment.
type UserStore struct {
	mu    sync.Mutex
	users map[int]paperbank.User
	maxID int
}

func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[int]paperbank.User),
	}
}

func (s *UserStore) Get(id int) (*paperbank.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *UserStore) GetByGoogleID(googleID string) (*paperbank.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.GoogleID == googleID {
			user := user
			return &user, nil
		}
	}
	return nil, nil
}

func (s *UserStore) GetByEmail(email string) (*paperbank.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			user := user
			return &user, nil
		}
	}
	return nil, nil
}

func (s *UserStore) Upsert(user *paperbank.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == 0 {
		s.maxID++
		user.ID = s.maxID
	} else if user.ID > s.maxID {
		s.maxID = user.ID
	}

	s.users[user.ID] = *user
	return nil
}

// Update applies fn to the stored user under the store lock, keeping
// the read-modify-write visible as a single step.
func (s *UserStore) Update(id int, fn func(*paperbank.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return errors.New(fmt.Sprintf("<User %d> not found", id), errors.NotFound())
	}

	if err := fn(&user); err != nil {
		return err
	}

	s.users[id] = user
	return nil
}

func (s *UserStore) List() ([]*paperbank.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*paperbank.User, 0, len(s.users))
	for _, user := range s.users {
		user := user
		users = append(users, &user)
	}
	return users, nil
}
