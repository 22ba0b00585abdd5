package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"

	"github.com/JulianoL13/tube-summary-engine/internal/logs"
)

const (
	// captionLimit stays under Telegram's 1024 caption cap to leave
	// room for the source link edit.
	captionLimit = 900
	// messageLimit stays under Telegram's 4096 text cap.
	messageLimit = 4000

	continuationMark = " ⬇️"

	defaultMaxRetries = 4
	defaultMaxElapsed = 2 * time.Minute
)

// API is the subset of the Bot API the sender drives. Message IDs come
// back so follow-ups can reply to the photo post.
type API interface {
	SendPhoto(ctx context.Context, chatID, photoURL, caption string) (int64, error)
	SendMessage(ctx context.Context, chatID, text string, replyTo int64) (int64, error)
	EditMessageText(ctx context.Context, chatID string, messageID int64, text string) error
	EditMessageCaption(ctx context.Context, chatID string, messageID int64, caption string) error
}

// Message is one summary ready for delivery.
type Message struct {
	ChatID       string
	VideoTitle   string
	Summary      string
	VideoURL     string
	ThumbnailURL string
}

// Sender posts a summary as a photo message followed by as many text
// messages as the summary needs, ending with a source link. The whole
// delivery retries with exponential backoff.
type Sender struct {
	api        API
	logger     logs.Logger
	maxRetries uint64
	maxElapsed time.Duration
}

type SenderOption func(*Sender)

func WithRetryBudget(maxRetries uint64, maxElapsed time.Duration) SenderOption {
	return func(s *Sender) {
		s.maxRetries = maxRetries
		s.maxElapsed = maxElapsed
	}
}

func NewSender(api API, logger logs.Logger, opts ...SenderOption) *Sender {
	s := &Sender{
		api:        api,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		maxElapsed: defaultMaxElapsed,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sender) Send(ctx context.Context, msg Message) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = s.maxElapsed

	attempt := 0
	op := func() error {
		attempt++
		if err := s.send(ctx, msg); err != nil {
			s.logger.Warn("telegram delivery failed", "chat_id", msg.ChatID, "attempt", attempt, "error", err)
			return err
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, s.maxRetries), ctx))
}

func (s *Sender) send(ctx context.Context, msg Message) error {
	first, remaining := splitAtWordBoundary(msg.Summary, captionLimit)
	caption := first
	if remaining != "" {
		caption += continuationMark
	}

	photoID, err := s.api.SendPhoto(ctx, msg.ChatID, msg.ThumbnailURL, caption)
	if err != nil {
		return fmt.Errorf("send photo: %w", err)
	}

	source := fmt.Sprintf("\n\nSource: [%s](%s)", msg.VideoTitle, msg.VideoURL)

	if remaining == "" {
		if utf8.RuneCountInString(caption)+utf8.RuneCountInString(source) <= captionLimit {
			return s.api.EditMessageCaption(ctx, msg.ChatID, photoID, caption+source)
		}
		_, err := s.api.SendMessage(ctx, msg.ChatID, source, photoID)
		return err
	}

	var lastID int64
	var lastChunk string
	for remaining != "" {
		chunk, rest := splitAtWordBoundary(remaining, messageLimit)
		remaining = rest

		text := chunk
		if remaining != "" {
			text += continuationMark
		}
		lastID, err = s.api.SendMessage(ctx, msg.ChatID, text, photoID)
		if err != nil {
			return fmt.Errorf("send continuation: %w", err)
		}
		lastChunk = chunk
	}

	if utf8.RuneCountInString(lastChunk)+utf8.RuneCountInString(source) <= messageLimit {
		return s.api.EditMessageText(ctx, msg.ChatID, lastID, lastChunk+source)
	}
	_, err = s.api.SendMessage(ctx, msg.ChatID, source, photoID)
	return err
}

// splitAtWordBoundary cuts text at the last space before max runes.
// With no space in range the cut lands exactly at max.
func splitAtWordBoundary(text string, max int) (string, string) {
	runes := []rune(text)
	if len(runes) <= max {
		return text, ""
	}

	split := -1
	for i := max - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			split = i
			break
		}
	}
	if split == -1 {
		split = max
	}
	return strings.TrimSpace(string(runes[:split])), strings.TrimSpace(string(runes[split:]))
}
