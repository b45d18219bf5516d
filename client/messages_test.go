package client

import (
	"context"
	"sync"
	"testing"

	"kukuhub/models"
)

type unreadRecorder struct {
	mu     sync.Mutex
	counts []int
}

func (r *unreadRecorder) record(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, count)
}

func (r *unreadRecorder) latest() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.counts) == 0 {
		return 0, false
	}
	return r.counts[len(r.counts)-1], true
}

func TestFetchMessagesReportsUnread(t *testing.T) {
	b := newFakeBackend(t)
	b.messages = []models.Message{
		{ID: "m1", SenderName: "Jane", Message: "Do you deliver to Nakuru?", IsRead: false},
		{ID: "m2", SenderName: "Ali", Message: "Is the feed still in stock?", IsRead: false},
		{ID: "m3", SenderName: "Grace", Message: "Thanks!", IsRead: true},
	}
	recorder := &unreadRecorder{}
	store := NewMessageStore(b.client(), &recordingNotifier{}, recorder.record)

	store.FetchMessages(context.Background())

	if got := store.Unread(); got != 2 {
		t.Errorf("Unread = %d, want 2", got)
	}
	if got, ok := recorder.latest(); !ok || got != 2 {
		t.Errorf("badge callback = %d, %v; want 2, true", got, ok)
	}
	if got := store.Messages(); len(got) != 3 {
		t.Errorf("messages = %d, want 3", len(got))
	}
}

func TestMarkAsReadPatchesLocallyAndDropsCount(t *testing.T) {
	b := newFakeBackend(t)
	b.messages = []models.Message{
		{ID: "m1", IsRead: false},
		{ID: "m2", IsRead: false},
	}
	recorder := &unreadRecorder{}
	store := NewMessageStore(b.client(), &recordingNotifier{}, recorder.record)
	store.FetchMessages(context.Background())

	if err := store.MarkAsRead(context.Background(), "m1"); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}

	b.mu.Lock()
	markCalls := len(b.markReadCalls)
	b.mu.Unlock()
	if markCalls != 1 {
		t.Errorf("mark-read calls = %d, want 1", markCalls)
	}

	if got, _ := recorder.latest(); got != 1 {
		t.Errorf("badge callback after mark = %d, want 1", got)
	}
	messages := store.Messages()
	if !messages[0].IsRead {
		t.Error("m1 not marked read locally")
	}
	if messages[1].IsRead {
		t.Error("m2 flipped to read, want untouched")
	}
	// The badge count always matches a recount of the held list.
	if got := store.Unread(); got != 1 {
		t.Errorf("Unread = %d, want 1", got)
	}
}

func TestMarkAsReadFailureLeavesStateAlone(t *testing.T) {
	b := newFakeBackend(t)
	b.messages = []models.Message{
		{ID: "m1", IsRead: false},
		{ID: "m2", IsRead: false},
	}
	b.markReadFail = true
	recorder := &unreadRecorder{}
	notifier := &recordingNotifier{}
	store := NewMessageStore(b.client(), notifier, recorder.record)
	store.FetchMessages(context.Background())

	if err := store.MarkAsRead(context.Background(), "m1"); err != ErrMarkReadFailed {
		t.Fatalf("MarkAsRead error = %v, want ErrMarkReadFailed", err)
	}

	if got := store.Unread(); got != 2 {
		t.Errorf("Unread after failed mark = %d, want 2", got)
	}
	if store.Messages()[0].IsRead {
		t.Error("m1 marked read locally despite server failure")
	}
	if got, _ := recorder.latest(); got != 2 {
		t.Errorf("badge callback after failed mark = %d, want 2 (unchanged)", got)
	}
	if !notifier.has("Error") {
		t.Error("missing error notification")
	}
}
