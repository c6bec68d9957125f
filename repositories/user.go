package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-core/domain"
	apperrors "chat-core/errors"

	"github.com/dgraph-io/badger/v4"
)

const userPrefix = "user:"

// UserRepository stores registered accounts keyed by username.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func userKey(username string) []byte {
	return []byte(userPrefix + username)
}

// CreateUser inserts the account, failing if the username is taken.
func (r *UserRepository) CreateUser(user domain.User) error {
	value, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(userKey(user.Username))
		if err == nil {
			return apperrors.ErrUserAlreadyExists
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(userKey(user.Username), value)
	})
	if err != nil {
		if err == apperrors.ErrUserAlreadyExists {
			return err
		}
		return fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	return nil
}

func (r *UserRepository) GetUserByUsername(username string) (domain.User, error) {
	var user domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	return user, nil
}

// UpdateLastSeen refreshes the account's last connection time.
func (r *UserRepository) UpdateLastSeen(username string, at time.Time) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		var user domain.User
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		}); err != nil {
			return err
		}
		user.LastSeenAt = at
		value, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set(userKey(username), value)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistenceFailure, err)
	}
	return nil
}
