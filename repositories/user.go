package repositories

import (
	"chat-direct/domain/chat"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// UserRepository records which user identities exist. Identity lifecycle is
// external: the gateway saves an identity the first time it authenticates,
// and the message store only asks for membership when validating a receiver.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// DiskUser is the stored shape of a known identity.
type DiskUser struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func userKey(user chat.UserID) []byte { return []byte("user:" + string(user)) }

// Save is idempotent: re-registering a known identity keeps the original
// record.
func (u *UserRepository) Save(user chat.UserID) error {
	return u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(user)); err == nil {
			return nil
		}
		bytes, err := json.Marshal(DiskUser{ID: string(user), CreatedAt: time.Now().UTC()})
		if err != nil {
			return err
		}
		return txn.Set(userKey(user), bytes)
	})
}

func (u *UserRepository) Exists(user chat.UserID) (bool, error) {
	var found bool
	err := u.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(userKey(user))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}
