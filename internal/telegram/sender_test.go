package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	logmocks "github.com/JulianoL13/tube-summary-engine/internal/logs/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiCall struct {
	method    string
	chatID    string
	text      string
	replyTo   int64
	messageID int64
}

type fakeAPI struct {
	calls      []apiCall
	nextID     int64
	photoErrs  int
	totalSends int
}

func (f *fakeAPI) SendPhoto(ctx context.Context, chatID, photoURL, caption string) (int64, error) {
	f.totalSends++
	if f.photoErrs > 0 {
		f.photoErrs--
		return 0, errors.New("flood control")
	}
	f.nextID++
	f.calls = append(f.calls, apiCall{method: "sendPhoto", chatID: chatID, text: caption, messageID: f.nextID})
	return f.nextID, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, chatID, text string, replyTo int64) (int64, error) {
	f.nextID++
	f.calls = append(f.calls, apiCall{method: "sendMessage", chatID: chatID, text: text, replyTo: replyTo, messageID: f.nextID})
	return f.nextID, nil
}

func (f *fakeAPI) EditMessageText(ctx context.Context, chatID string, messageID int64, text string) error {
	f.calls = append(f.calls, apiCall{method: "editMessageText", chatID: chatID, text: text, messageID: messageID})
	return nil
}

func (f *fakeAPI) EditMessageCaption(ctx context.Context, chatID string, messageID int64, caption string) error {
	f.calls = append(f.calls, apiCall{method: "editMessageCaption", chatID: chatID, text: caption, messageID: messageID})
	return nil
}

func testMessage(summary string) Message {
	return Message{
		ChatID:       "@digest",
		VideoTitle:   "Raft explained",
		Summary:      summary,
		VideoURL:     "https://www.youtube.com/watch?v=vid-1",
		ThumbnailURL: "https://i.ytimg.com/m.jpg",
	}
}

func TestSender_Send(t *testing.T) {
	t.Run("short summary goes out as one edited caption", func(t *testing.T) {
		api := &fakeAPI{}
		sender := NewSender(api, logmocks.LoggerMock{})

		err := sender.Send(context.Background(), testMessage("A short recap."))
		require.NoError(t, err)

		require.Len(t, api.calls, 2)
		assert.Equal(t, "sendPhoto", api.calls[0].method)
		assert.Equal(t, "A short recap.", api.calls[0].text)

		assert.Equal(t, "editMessageCaption", api.calls[1].method)
		assert.Equal(t, api.calls[0].messageID, api.calls[1].messageID)
		assert.Equal(t, "A short recap.\n\nSource: [Raft explained](https://www.youtube.com/watch?v=vid-1)", api.calls[1].text)
	})

	t.Run("long summary splits into caption and replies", func(t *testing.T) {
		api := &fakeAPI{}
		sender := NewSender(api, logmocks.LoggerMock{})

		word := "word "
		summary := strings.TrimSpace(strings.Repeat(word, 1000)) // ~5000 runes

		err := sender.Send(context.Background(), testMessage(summary))
		require.NoError(t, err)

		require.GreaterOrEqual(t, len(api.calls), 3)
		photo := api.calls[0]
		assert.Equal(t, "sendPhoto", photo.method)
		assert.True(t, strings.HasSuffix(photo.text, continuationMark))
		assert.LessOrEqual(t, utf8.RuneCountInString(photo.text), captionLimit+utf8.RuneCountInString(continuationMark))

		var rebuilt []string
		rebuilt = append(rebuilt, strings.TrimSuffix(photo.text, continuationMark))

		last := api.calls[len(api.calls)-1]
		assert.Equal(t, "editMessageText", last.method)
		assert.Contains(t, last.text, "Source: [Raft explained]")

		for _, call := range api.calls[1 : len(api.calls)-1] {
			assert.Equal(t, "sendMessage", call.method)
			assert.Equal(t, photo.messageID, call.replyTo)
			rebuilt = append(rebuilt, strings.TrimSuffix(call.text, continuationMark))
		}
		// The last edit replaces the final chunk's text, so the final
		// chunk appears there with the source appended.
		sourceIdx := strings.Index(last.text, "\n\nSource:")
		require.Greater(t, sourceIdx, 0)
		rebuilt[len(rebuilt)-1] = last.text[:sourceIdx]

		assert.Equal(t, summary, strings.Join(rebuilt, " "))
	})

	t.Run("retries transient failures", func(t *testing.T) {
		api := &fakeAPI{photoErrs: 2}
		sender := NewSender(api, logmocks.LoggerMock{},
			WithRetryBudget(4, 10*time.Second))

		err := sender.Send(context.Background(), testMessage("A short recap."))
		require.NoError(t, err)
		assert.Equal(t, 3, api.totalSends)
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		api := &fakeAPI{photoErrs: 10}
		sender := NewSender(api, logmocks.LoggerMock{},
			WithRetryBudget(2, 10*time.Second))

		err := sender.Send(context.Background(), testMessage("A short recap."))
		require.Error(t, err)
		assert.Equal(t, 3, api.totalSends)
	})
}

func TestSplitAtWordBoundary(t *testing.T) {
	t.Run("short text passes through", func(t *testing.T) {
		head, tail := splitAtWordBoundary("hello world", 50)
		assert.Equal(t, "hello world", head)
		assert.Empty(t, tail)
	})

	t.Run("splits at the last space in range", func(t *testing.T) {
		head, tail := splitAtWordBoundary("alpha beta gamma delta", 12)
		assert.Equal(t, "alpha beta", head)
		assert.Equal(t, "gamma delta", tail)
	})

	t.Run("forces the cut when no space exists", func(t *testing.T) {
		head, tail := splitAtWordBoundary("abcdefghij", 4)
		assert.Equal(t, "abcd", head)
		assert.Equal(t, "efghij", tail)
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		head, tail := splitAtWordBoundary("ééééé ü 700", 7)
		assert.Equal(t, "ééééé", head)
		assert.Equal(t, "ü 700", tail)
	})
}
