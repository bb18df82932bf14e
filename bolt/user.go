package bolt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/bobinette/paperbank"
	"github.com/bobinette/paperbank/errors"
)

var userBucket = []byte("users")

// UserStore stores and retrieves users from a bolt database.
type UserStore struct {
	Driver *Driver
}

func (s *UserStore) Get(id int) (*paperbank.User, error) {
	var user *paperbank.User
	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(userBucket)

		data := bucket.Get(itob(id))
		if data == nil {
			return nil
		}

		user = &paperbank.User{}
		return json.Unmarshal(data, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserStore) GetByGoogleID(googleID string) (*paperbank.User, error) {
	return s.search(func(u *paperbank.User) bool { return u.GoogleID == googleID })
}

func (s *UserStore) GetByEmail(email string) (*paperbank.User, error) {
	return s.search(func(u *paperbank.User) bool { return u.Email == email })
}

func (s *UserStore) Upsert(user *paperbank.User) error {
	return s.Driver.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(userBucket)

		if user.ID <= 0 {
			id, err := bucket.NextSequence()
			if err != nil {
				return fmt.Errorf("error incrementing id: %v", err)
			}
			user.ID = int(id)
			user.CreatedAt = time.Now()
		}

		data, err := json.Marshal(user)
		if err != nil {
			return err
		}

		return bucket.Put(itob(user.ID), data)
	})
}

// Update runs fn on the stored user inside a single bolt transaction.
// The write lands only when fn returns nil, so a balance check and its
// decrement are one atomically visible step: no other update on the
// same user can interleave between them.
func (s *UserStore) Update(id int, fn func(*paperbank.User) error) error {
	return s.Driver.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(userBucket)

		data := bucket.Get(itob(id))
		if data == nil {
			return errors.New(fmt.Sprintf("<User %d> not found", id), errors.NotFound())
		}

		var user paperbank.User
		if err := json.Unmarshal(data, &user); err != nil {
			return err
		}

		if err := fn(&user); err != nil {
			return err
		}

		data, err := json.Marshal(user)
		if err != nil {
			return err
		}

		return bucket.Put(itob(id), data)
	})
}

func (s *UserStore) List() ([]*paperbank.User, error) {
	var users []*paperbank.User

	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(userBucket)

		c := bucket.Cursor()
		for id, data := c.First(); id != nil; id, data = c.Next() {
			var user paperbank.User
			if err := json.Unmarshal(data, &user); err != nil {
				return err
			}
			users = append(users, &user)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return users, nil
}

func (s *UserStore) search(match func(*paperbank.User) bool) (*paperbank.User, error) {
	var user *paperbank.User

	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(userBucket)
		c := bucket.Cursor()

		for id, data := c.First(); id != nil; id, data = c.Next() {
			var u paperbank.User
			if err := json.Unmarshal(data, &u); err != nil {
				return err
			}

			if match(&u) {
				user = &u
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}
