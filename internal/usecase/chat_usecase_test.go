package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peertrade/internal/domain/entity"
	"peertrade/pkg/errors"
)

func TestSendMessageAssignsSequence(t *testing.T) {
	env := newTestEnv(30*time.Minute, 30*time.Minute)
	env.seedOrder(entity.OrderStatusPending)

	first, err := env.chat.SendMessage(context.Background(), "order-1", "buyer-1", "hello", "", nil)
	require.NoError(t, err)
	second, err := env.chat.SendMessage(context.Background(), "order-1", "seller-1", "hi there", "", nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, "alice", first.SenderName)
	assert.Equal(t, "bob", second.SenderName)
}

func TestSendMessageForbiddenForOutsider(t *testing.T) {
	env := newTestEnv(30*time.Minute, 30*time.Minute)
	env.seedOrder(entity.OrderStatusPending)

	_, err := env.chat.SendMessage(context.Background(), "order-1", "stranger", "let me in", "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestSendMessageUnknownOrder(t *testing.T) {
	env := newTestEnv(30*time.Minute, 30*time.Minute)

	_, err := env.chat.SendMessage(context.Background(), "missing", "buyer-1", "anyone?", "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestSendMessageValidation(t *testing.T) {
	env := newTestEnv(30*time.Minute, 30*time.Minute)
	env.seedOrder(entity.OrderStatusPending)

	_, err := env.chat.SendMessage(context.Background(), "order-1", "buyer-1", "   ", entity.MessageTypeText, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = env.chat.SendMessage(context.Background(), "order-1", "buyer-1", "", entity.MessageTypeFile, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestFileMessageCarriesReference(t *testing.T) {
	env := newTestEnv(30*time.Minute, 30*time.Minute)
	env.seedOrder(entity.OrderStatusPending)

	fileRef := &entity.FileRef{
		OriginalName: "receipt.pdf",
		MimeType:     "application/pdf",
		SizeBytes:    2048,
		Path:         "https://storage.googleapis.com/bucket/attachments/order-1/x.pdf",
	}

	message, err := env.chat.SendMessage(context.Background(), "order-1", "buyer-1", "", entity.MessageTypeFile, fileRef)
	require.NoError(t, err)
	require.NotNil(t, message.File)
	assert.Equal(t, "receipt.pdf", message.File.OriginalName)
	assert.Equal(t, int64(2048), message.File.SizeBytes)
}

// Concurrent sends from both parties must get consecutive sequence numbers
// with no gaps or duplicates.
func TestConcurrentSendsAreGapless(t *testing.T) {
	env := newTestEnv(30*time.Minute, 30*time.Minute)
	env.seedOrder(entity.OrderStatusPending)

	const perSender = 20
	var wg sync.WaitGroup
	wg.Add(2)

	for _, sender := range []string{"buyer-1", "seller-1"} {
		go func(sender string) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				_, err := env.chat.SendMessage(context.Background(), "order-1", sender, fmt.Sprintf("%s says %d", sender, i), "", nil)
				assert.NoError(t, err)
			}
		}(sender)
	}
	wg.Wait()

	messages, err := env.chat.ListMessages(context.Background(), "order-1", "buyer-1")
	require.NoError(t, err)
	require.Len(t, messages, 2*perSender)

	for i, message := range messages {
		assert.Equal(t, int64(i+1), message.Seq, "sequence must be gapless")
	}

	// Both parties observe the same total order.
	sellerView, err := env.chat.ListMessages(context.Background(), "order-1", "seller-1")
	require.NoError(t, err)
	require.Len(t, sellerView, len(messages))
	for i := range messages {
		assert.Equal(t, messages[i].ID, sellerView[i].ID)
	}
}

func TestListMessagesForbiddenForOutsider(t *testing.T) {
	env := newTestEnv(30*time.Minute, 30*time.Minute)
	env.seedOrder(entity.OrderStatusPending)

	_, err := env.chat.ListMessages(context.Background(), "order-1", "stranger")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestNewMessageNotifiesCounterparty(t *testing.T) {
	env := newTestEnv(30*time.Minute, 30*time.Minute)
	env.seedOrder(entity.OrderStatusPending)

	_, err := env.chat.SendMessage(context.Background(), "order-1", "buyer-1", "ping", "", nil)
	require.NoError(t, err)

	notifs, _, err := env.notifications.List(context.Background(), "seller-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, entity.NotificationTypeNewMessage, notifs[0].Type)
	assert.Equal(t, entity.PriorityLow, notifs[0].Priority)

	// The sender never notifies themselves.
	own, _, err := env.notifications.List(context.Background(), "buyer-1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, own)
}

func TestNewMessageSuppressedWhileViewing(t *testing.T) {
	env := newTestEnv(30*time.Minute, 30*time.Minute)
	env.seedOrder(entity.OrderStatusPending)

	env.registry.setViewing("order-1", "seller-1", true)

	_, err := env.chat.SendMessage(context.Background(), "order-1", "buyer-1", "you there?", "", nil)
	require.NoError(t, err)

	notifs, _, err := env.notifications.List(context.Background(), "seller-1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, notifs, "recipient viewing the room must not be notified")
}

func TestIsParty(t *testing.T) {
	env := newTestEnv(30*time.Minute, 30*time.Minute)
	env.seedOrder(entity.OrderStatusPending)

	ok, err := env.chat.IsParty(context.Background(), "order-1", "buyer-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.chat.IsParty(context.Background(), "order-1", "stranger")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = env.chat.IsParty(context.Background(), "missing", "buyer-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
