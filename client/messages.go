package client

import (
	"context"
	"errors"
	"sync"

	"kukuhub/models"
)

var ErrMarkReadFailed = errors.New("failed to mark message as read")

type messagesEnvelope struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Messages []models.Message `json:"messages"`
}

type markReadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MessageStore holds the seller's messages and derives the unread count.
// The count is always recomputed as a filter over the held list, never
// tracked incrementally. Mark-read applies an optimistic local patch instead
// of re-fetching.
type MessageStore struct {
	api      *Client
	notifier Notifier
	onUnread func(count int)

	mu       sync.Mutex
	messages []models.Message
}

// NewMessageStore reports unread-count changes through onUnread, the badge
// callback. onUnread may be nil.
func NewMessageStore(api *Client, notifier Notifier, onUnread func(count int)) *MessageStore {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MessageStore{api: api, notifier: notifier, onUnread: onUnread}
}

func (s *MessageStore) FetchMessages(ctx context.Context) {
	var envelope messagesEnvelope
	if err := s.api.get(ctx, "/api/seller/messages", &envelope); err != nil {
		s.notifier.Notify(Notification{
			Title:       "Error",
			Description: "Failed to connect to server",
			Error:       true,
		})
		return
	}
	if !envelope.Success {
		s.notifier.Notify(Notification{
			Title:       "Error",
			Description: "Failed to fetch messages",
			Error:       true,
		})
		return
	}

	s.mu.Lock()
	s.messages = envelope.Messages
	unread := unreadIn(s.messages)
	s.mu.Unlock()

	s.reportUnread(unread)
}

// MarkAsRead marks one message read on the server, then patches the local
// copy. The reported unread count is computed from the pre-update list with
// the marked id filtered out.
func (s *MessageStore) MarkAsRead(ctx context.Context, messageID string) error {
	var resp markReadResponse
	err := s.api.put(ctx, "/api/seller/messages/mark-read/"+messageID, nil, &resp)
	if err != nil {
		s.notifier.Notify(Notification{
			Title:       "Error",
			Description: "Failed to connect to server",
			Error:       true,
		})
		return err
	}
	if !resp.Success {
		s.notifier.Notify(Notification{
			Title:       "Error",
			Description: "Failed to mark message as read",
			Error:       true,
		})
		return ErrMarkReadFailed
	}

	s.mu.Lock()
	unread := 0
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			s.messages[i].IsRead = true
		} else if !s.messages[i].IsRead {
			unread++
		}
	}
	s.mu.Unlock()

	s.reportUnread(unread)
	return nil
}

// Messages returns a snapshot copy.
func (s *MessageStore) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]models.Message, len(s.messages))
	copy(messages, s.messages)
	return messages
}

// Unread recomputes the unread count from the held list.
func (s *MessageStore) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return unreadIn(s.messages)
}

func (s *MessageStore) reportUnread(count int) {
	if s.onUnread != nil {
		s.onUnread(count)
	}
}

func unreadIn(messages []models.Message) int {
	count := 0
	for _, msg := range messages {
		if !msg.IsRead {
			count++
		}
	}
	return count
}
