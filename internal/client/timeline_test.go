package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/models"
)

const chatID = "2d1f0c7e-9a34-4f5a-8f22-1f6f9f0f8b11"

func TestSubmitPendingRejectsBlank(t *testing.T) {
	tl := NewTimeline(chatID, 1)

	_, ok := tl.SubmitPending("   ")
	assert.False(t, ok)
	assert.Zero(t, tl.Total())
}

func TestOptimisticSendReconciledByEcho(t *testing.T) {
	tl := NewTimeline(chatID, 1)

	localID, ok := tl.SubmitPending("hello")
	require.True(t, ok)
	assert.Equal(t, "local-1", localID)
	assert.Equal(t, 1, tl.Total())

	tl.ApplyBroadcast(models.Message{ID: 10, ChatID: chatID, SenderID: 1, Content: "hello"})

	entries := tl.Messages()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Pending)
	assert.Equal(t, int64(10), entries[0].Message.ID)
	assert.Equal(t, 1, tl.Total(), "echo replaces the pending entry without changing the count")
}

func TestEchoMatchesOldestPending(t *testing.T) {
	tl := NewTimeline(chatID, 1)
	tl.SubmitPending("same")
	tl.SubmitPending("same")

	tl.ApplyBroadcast(models.Message{ID: 10, ChatID: chatID, SenderID: 1, Content: "same"})

	entries := tl.Chronological()
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Pending, "oldest pending entry is the one replaced")
	assert.True(t, entries[1].Pending)
}

func TestBroadcastFromPeerInsertsAtHead(t *testing.T) {
	tl := NewTimeline(chatID, 1)
	tl.SubmitPending("mine")

	tl.ApplyBroadcast(models.Message{ID: 5, ChatID: chatID, SenderID: 2, Content: "theirs"})

	entries := tl.Messages()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(5), entries[0].Message.ID)
	assert.Equal(t, 2, tl.Total())
}

func TestBroadcastForOtherChatIgnored(t *testing.T) {
	tl := NewTimeline(chatID, 1)

	tl.ApplyBroadcast(models.Message{ID: 5, ChatID: "some-other-chat", SenderID: 2, Content: "x"})

	assert.Empty(t, tl.Messages())
	assert.Zero(t, tl.Total())
}

func TestDuplicateBroadcastIgnored(t *testing.T) {
	tl := NewTimeline(chatID, 1)
	msg := models.Message{ID: 5, ChatID: chatID, SenderID: 2, Content: "x"}

	tl.ApplyBroadcast(msg)
	tl.ApplyBroadcast(msg)

	assert.Len(t, tl.Messages(), 1)
	assert.Equal(t, 1, tl.Total())
}

func TestApplyErrorDropsOldestPending(t *testing.T) {
	tl := NewTimeline(chatID, 1)
	tl.SubmitPending("first")
	tl.SubmitPending("second")

	tl.ApplyError()

	entries := tl.Chronological()
	require.Len(t, entries, 1)
	assert.Equal(t, "second", entries[0].Message.Content)
	assert.Equal(t, 1, tl.Total())
}

func TestApplyErrorWithoutPendingIsNoop(t *testing.T) {
	tl := NewTimeline(chatID, 1)
	tl.ApplyBroadcast(models.Message{ID: 5, ChatID: chatID, SenderID: 2, Content: "x"})

	tl.ApplyError()

	assert.Len(t, tl.Messages(), 1)
	assert.Equal(t, 1, tl.Total())
}

func TestMergePageAppendsOlderHistory(t *testing.T) {
	tl := NewTimeline(chatID, 1)
	tl.ApplyBroadcast(models.Message{ID: 30, ChatID: chatID, SenderID: 2, Content: "newest"})

	tl.MergePage(models.MessagePage{
		Data: []models.Message{
			{ID: 20, ChatID: chatID, SenderID: 2, Content: "older"},
			{ID: 10, ChatID: chatID, SenderID: 1, Content: "oldest"},
		},
		TotalMessages: 3,
		Page:          1,
		Limit:         2,
	})

	entries := tl.Chronological()
	require.Len(t, entries, 3)
	assert.Equal(t, int64(10), entries[0].Message.ID)
	assert.Equal(t, int64(30), entries[2].Message.ID)
	assert.Equal(t, 3, tl.Total())
}

func TestMergePageSkipsKnownIDsAndKeepsPending(t *testing.T) {
	tl := NewTimeline(chatID, 1)
	tl.ApplyBroadcast(models.Message{ID: 20, ChatID: chatID, SenderID: 2, Content: "seen"})
	tl.SubmitPending("in flight")

	tl.MergePage(models.MessagePage{
		Data: []models.Message{
			{ID: 20, ChatID: chatID, SenderID: 2, Content: "seen"},
			{ID: 10, ChatID: chatID, SenderID: 1, Content: "old"},
		},
		TotalMessages: 2,
		Page:          1,
		Limit:         20,
	})

	assert.Len(t, tl.Messages(), 3)
	assert.Equal(t, 3, tl.Total(), "server total plus the pending entry")
}

func TestMergeCountProbe(t *testing.T) {
	tl := NewTimeline(chatID, 1)

	tl.MergePage(models.MessagePage{Data: nil, TotalMessages: 57, Page: 0, Limit: 1})

	assert.Empty(t, tl.Messages())
	assert.Equal(t, 57, tl.Total())
}
