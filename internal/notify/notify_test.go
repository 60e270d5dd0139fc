package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu   sync.Mutex
	got  []Message
	done chan struct{}
	want int
}

func (s *captureSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, msg)
	if len(s.got) == s.want {
		close(s.done)
	}
	return nil
}

func TestDispatcherDelivers(t *testing.T) {
	sender := &captureSender{done: make(chan struct{}), want: 2}
	dispatcher := NewDispatcher(sender, Config{Workers: 1}, nil)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	dispatcher.Notify(Message{Kind: KindHomeworkAssigned, RecipientID: "tg-1", Text: "new homework"})
	dispatcher.Notify(Message{Kind: KindSubmissionGraded, RecipientID: "tg-2", Text: "graded"})

	select {
	case <-sender.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifications not delivered")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.got, 2)
	require.Equal(t, "tg-1", sender.got[0].RecipientID)
}

func TestDispatcherSkipsUnlinkedRecipients(t *testing.T) {
	sender := &captureSender{done: make(chan struct{}), want: 1}
	dispatcher := NewDispatcher(sender, Config{Workers: 1}, nil)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	// No messaging identity attached yet: nothing to deliver to.
	dispatcher.Notify(Message{Kind: KindHomeworkAssigned, RecipientID: "", Text: "dropped"})
	dispatcher.Notify(Message{Kind: KindHomeworkAssigned, RecipientID: "tg-1", Text: "kept"})

	select {
	case <-sender.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.got, 1)
	require.Equal(t, "kept", sender.got[0].Text)
}
