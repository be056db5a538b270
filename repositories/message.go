package repositories

import (
	"chat-direct/contract"
	"chat-direct/domain/chat"
	"chat-direct/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// MessageRepository persists messages in BadgerDB.
//
// Keys:
//  1. "msg:{id}" holds the record itself. The id starts with a 19-digit
//     zero-padded creation UnixNano, so ids sort chronologically.
//  2. "conv:{pair}:{id}" indexes the record under its conversation; a prefix
//     scan yields the pair's history oldest first.
//  3. "pend:{receiver}:{id}" indexes records not yet read by the receiver;
//     the entry is dropped when the status reaches read.
//
// All keys touched by one mutation share a single transaction, so every
// mutation is atomic and visible to reads issued after it completes.
type MessageRepository struct {
	db    *badger.DB
	users contract.IUserDirectory
	log   *slog.Logger
	now   func() time.Time
}

func NewMessageRepository(db *badger.DB, users contract.IUserDirectory, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, users: users, log: log, now: time.Now}
}

// DiskMessage is the stored shape of a message.
type DiskMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
	Deleted   bool      `json:"deleted"`
}

func msgKey(id string) []byte { return []byte("msg:" + id) }

func convKey(pair, id string) []byte { return []byte("conv:" + pair + ":" + id) }

func pendKey(receiver chat.UserID, id string) []byte {
	return []byte("pend:" + string(receiver) + ":" + id)
}

func (m *MessageRepository) Create(sender, receiver chat.UserID, content string) (chat.Message, error) {
	if content == "" {
		return chat.Message{}, errors.ErrEmptyContent
	}
	known, err := m.users.Exists(receiver)
	if err != nil {
		return chat.Message{}, fmt.Errorf("receiver lookup: %w", err)
	}
	if !known {
		return chat.Message{}, errors.ErrUnknownReceiver
	}

	at := m.now().UTC()
	message := chat.Message{
		ID:        chat.NewMessageID(at),
		Sender:    sender,
		Receiver:  receiver,
		Content:   content,
		CreatedAt: at,
		Status:    chat.StatusSending,
	}
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return chat.Message{}, err
	}

	pair := chat.ConversationKey(sender, receiver)
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(msgKey(message.ID), bytes); err != nil {
			return err
		}
		if err := txn.Set(convKey(pair, message.ID), nil); err != nil {
			return err
		}
		return txn.Set(pendKey(receiver, message.ID), nil)
	})
	if err != nil {
		return chat.Message{}, err
	}
	return message, nil
}

func (m *MessageRepository) Get(id string) (chat.Message, error) {
	var message chat.Message
	err := m.db.View(func(txn *badger.Txn) error {
		found, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		message = found
		return nil
	})
	return message, err
}

// UpdateStatus moves a message along the forward-only state machine. The
// read-modify-write happens inside one transaction, which serializes
// concurrent transitions on the same message id.
func (m *MessageRepository) UpdateStatus(id string, status chat.Status) (chat.Message, error) {
	var message chat.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		found, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		if !chat.CanTransition(found.Status, status) {
			return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, found.Status, status)
		}
		found.Status = status
		bytes, err := json.Marshal(fromMessage(found))
		if err != nil {
			return err
		}
		if err := txn.Set(msgKey(id), bytes); err != nil {
			return err
		}
		if status == chat.StatusRead {
			if err := txn.Delete(pendKey(found.Receiver, id)); err != nil {
				return err
			}
		}
		message = found
		return nil
	})
	return message, err
}

// FindPending returns the receiver's messages not yet marked read, oldest
// first. Ascending key order follows creation order thanks to the padded
// timestamp prefix of the id.
func (m *MessageRepository) FindPending(receiver chat.UserID) ([]chat.Message, error) {
	var res []chat.Message
	prefix := []byte("pend:" + string(receiver) + ":")
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id := string(it.Item().Key()[len(prefix):])
			message, err := getMessage(txn, id)
			if err != nil {
				return err
			}
			if message.Status == chat.StatusRead {
				// Stale index entry; skip rather than fail the drain.
				m.log.Warn("pending index out of sync", "message_id", id)
				continue
			}
			res = append(res, message)
		}
		return nil
	})
	return res, err
}

// Conversation returns the full history of the unordered pair {a, b},
// ascending by creation time. Soft-deleted records are skipped unless
// includeDeleted is set.
func (m *MessageRepository) Conversation(a, b chat.UserID, includeDeleted bool) ([]chat.Message, error) {
	var res []chat.Message
	prefix := []byte("conv:" + chat.ConversationKey(a, b) + ":")
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id := string(it.Item().Key()[len(prefix):])
			message, err := getMessage(txn, id)
			if err != nil {
				return err
			}
			if message.Deleted && !includeDeleted {
				continue
			}
			res = append(res, message)
		}
		return nil
	})
	return res, err
}

// SoftDelete marks the record deleted without removing it.
func (m *MessageRepository) SoftDelete(id string) error {
	return m.db.Update(func(txn *badger.Txn) error {
		found, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		found.Deleted = true
		bytes, err := json.Marshal(fromMessage(found))
		if err != nil {
			return err
		}
		return txn.Set(msgKey(id), bytes)
	})
}

func getMessage(txn *badger.Txn, id string) (chat.Message, error) {
	item, err := txn.Get(msgKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return chat.Message{}, errors.ErrMessageNotFound
		}
		return chat.Message{}, err
	}
	var disk DiskMessage
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &disk)
	}); err != nil {
		return chat.Message{}, err
	}
	return toMessage(disk), nil
}

func fromMessage(message chat.Message) DiskMessage {
	return DiskMessage{
		ID:        message.ID,
		Sender:    string(message.Sender),
		Receiver:  string(message.Receiver),
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
		Status:    string(message.Status),
		Deleted:   message.Deleted,
	}
}

func toMessage(disk DiskMessage) chat.Message {
	return chat.Message{
		ID:        disk.ID,
		Sender:    chat.UserID(disk.Sender),
		Receiver:  chat.UserID(disk.Receiver),
		Content:   disk.Content,
		CreatedAt: disk.CreatedAt.UTC(),
		Status:    chat.Status(disk.Status),
		Deleted:   disk.Deleted,
	}
}
