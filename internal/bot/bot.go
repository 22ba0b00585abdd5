package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JulianoL13/tube-summary-engine/internal/logs"
	"github.com/JulianoL13/tube-summary-engine/internal/state"
	"github.com/JulianoL13/tube-summary-engine/internal/telegram"
	"github.com/JulianoL13/tube-summary-engine/internal/transcript"
	"github.com/JulianoL13/tube-summary-engine/internal/watcher"
)

const (
	DefaultCheckInterval   = 30 * time.Minute
	DefaultProcessInterval = 5 * time.Minute

	watchURLFormat = "https://www.youtube.com/watch?v=%s"
)

type ChannelWatcher interface {
	RecentUploads(ctx context.Context, channelID string) ([]watcher.Upload, error)
	Video(ctx context.Context, videoID string) (*watcher.Video, error)
}

type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (*transcript.Transcript, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, transcriptText string, prompt state.Prompt) (string, error)
}

type Deliverer interface {
	Send(ctx context.Context, msg telegram.Message) error
}

type MappingStore interface {
	Load() []*state.Mapping
	Save(mappings []*state.Mapping) error
}

// Bot runs the two cycles of the pipeline: discovering fresh uploads
// and working the queue one video at a time.
type Bot struct {
	store       MappingStore
	watcher     ChannelWatcher
	transcripts TranscriptFetcher
	summarizer  Summarizer
	sender      Deliverer
	logger      logs.Logger

	checkInterval   time.Duration
	processInterval time.Duration

	// mu guards mappings; the check and process loops and the status
	// API all touch them.
	mu       sync.Mutex
	mappings []*state.Mapping
}

type Option func(*Bot)

func WithCheckInterval(d time.Duration) Option {
	return func(b *Bot) { b.checkInterval = d }
}

func WithProcessInterval(d time.Duration) Option {
	return func(b *Bot) { b.processInterval = d }
}

func New(
	store MappingStore,
	channelWatcher ChannelWatcher,
	transcripts TranscriptFetcher,
	summarizer Summarizer,
	sender Deliverer,
	logger logs.Logger,
	opts ...Option,
) *Bot {
	b := &Bot{
		store:           store,
		watcher:         channelWatcher,
		transcripts:     transcripts,
		summarizer:      summarizer,
		sender:          sender,
		logger:          logger,
		checkInterval:   DefaultCheckInterval,
		processInterval: DefaultProcessInterval,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.mappings = store.Load()
	return b
}

// Run drives both loops until the context ends. The first cycle of
// each loop fires immediately.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("starting bot",
		"channels", len(b.mappings),
		"check_interval", b.checkInterval,
		"process_interval", b.processInterval)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		b.loop(ctx, b.checkInterval, "check", func(ctx context.Context) {
			b.CheckNewVideos(ctx)
		})
	}()
	go func() {
		defer wg.Done()
		b.loop(ctx, b.processInterval, "process", func(ctx context.Context) {
			if err := b.ProcessNextVideo(ctx); err != nil {
				b.logger.Warn("process cycle failed", "error", err)
			}
		})
	}()

	wg.Wait()
	b.logger.Info("bot stopped")
	return ctx.Err()
}

func (b *Bot) loop(ctx context.Context, interval time.Duration, name string, cycle func(context.Context)) {
	cycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("loop stopped", "loop", name)
			return
		case <-ticker.C:
			cycle(ctx)
		}
	}
}

// CheckNewVideos walks every mapping's channel and queues uploads it
// has not seen. Shorts are recorded as processed so they never queue.
func (b *Bot) CheckNewVideos(ctx context.Context) {
	for _, m := range b.snapshotMappings() {
		b.logger.Info("checking channel", "channel_id", m.YouTubeChannelID)

		uploads, err := b.watcher.RecentUploads(ctx, m.YouTubeChannelID)
		if err != nil {
			b.logger.Warn("channel check failed", "channel_id", m.YouTubeChannelID, "error", err)
			continue
		}

		for _, upload := range uploads {
			if b.seen(m, upload.VideoID) {
				continue
			}

			video, err := b.watcher.Video(ctx, upload.VideoID)
			if err != nil {
				b.logger.Warn("video lookup failed", "video_id", upload.VideoID, "error", err)
				continue
			}

			if video.IsShort() {
				b.logger.Info("skipping short", "video_id", video.VideoID, "title", video.Title)
				b.markProcessed(m, video.VideoID)
				continue
			}

			b.logger.Info("queueing video", "video_id", video.VideoID, "title", video.Title)
			b.enqueue(m, video.VideoID)
		}
	}
}

// ProcessNextVideo picks the oldest queued upload across all channels
// and pushes it through transcript, summary, and delivery. A video
// whose transcript is unavailable stays queued for the next cycle.
func (b *Bot) ProcessNextVideo(ctx context.Context) error {
	var (
		earliest        *watcher.Video
		earliestMapping *state.Mapping
	)

	for _, head := range b.queueHeads() {
		video, err := b.watcher.Video(ctx, head.videoID)
		if err != nil {
			b.logger.Warn("video lookup failed", "video_id", head.videoID, "error", err)
			continue
		}
		if earliest == nil || video.PublishedAt.Before(earliest.PublishedAt) {
			earliest = video
			earliestMapping = head.mapping
		}
	}
	if earliest == nil {
		return nil
	}

	b.logger.Info("processing video", "video_id", earliest.VideoID, "title", earliest.Title)

	tr, err := b.transcripts.Fetch(ctx, earliest.VideoID)
	if err != nil {
		var unavailable *transcript.UnavailableError
		if errors.As(err, &unavailable) {
			b.logger.Warn("transcript unavailable, leaving queued",
				"video_id", earliest.VideoID, "reason", unavailable.Reason)
			return nil
		}
		return fmt.Errorf("fetch transcript: %w", err)
	}

	summaryText, err := b.summarizer.Summarize(ctx, tr.Text(), earliestMapping.Prompt)
	if err != nil {
		return fmt.Errorf("summarize %s: %w", earliest.VideoID, err)
	}

	msg := telegram.Message{
		ChatID:       earliestMapping.TelegramChannelID,
		VideoTitle:   earliest.Title,
		Summary:      summaryText,
		VideoURL:     fmt.Sprintf(watchURLFormat, earliest.VideoID),
		ThumbnailURL: earliest.ThumbnailURL,
	}
	if err := b.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("deliver %s: %w", earliest.VideoID, err)
	}

	b.markProcessed(earliestMapping, earliest.VideoID)
	b.logger.Info("video delivered", "video_id", earliest.VideoID, "chat_id", msg.ChatID)
	return nil
}

type queueHead struct {
	mapping *state.Mapping
	videoID string
}

func (b *Bot) queueHeads() []queueHead {
	b.mu.Lock()
	defer b.mu.Unlock()

	var heads []queueHead
	for _, m := range b.mappings {
		if len(m.Unprocessed) > 0 {
			heads = append(heads, queueHead{mapping: m, videoID: m.Unprocessed[0]})
		}
	}
	return heads
}

func (b *Bot) snapshotMappings() []*state.Mapping {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*state.Mapping(nil), b.mappings...)
}

func (b *Bot) seen(m *state.Mapping, videoID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return m.Seen(videoID)
}

func (b *Bot) enqueue(m *state.Mapping, videoID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m.Enqueue(videoID) {
		b.persistLocked()
	}
}

func (b *Bot) markProcessed(m *state.Mapping, videoID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m.MarkProcessed(videoID)
	b.persistLocked()
}

func (b *Bot) persistLocked() {
	if err := b.store.Save(b.mappings); err != nil {
		b.logger.Error("failed to persist mappings", "error", err)
	}
}

// ChannelQueue is the per-channel view the status API serves.
type ChannelQueue struct {
	YouTubeChannelID  string   `json:"youtube_channel_id"`
	TelegramChannelID string   `json:"telegram_channel_id"`
	Queued            []string `json:"queued"`
	ProcessedCount    int      `json:"processed_count"`
}

func (b *Bot) QueueSnapshot() []ChannelQueue {
	b.mu.Lock()
	defer b.mu.Unlock()

	queues := make([]ChannelQueue, 0, len(b.mappings))
	for _, m := range b.mappings {
		queues = append(queues, ChannelQueue{
			YouTubeChannelID:  m.YouTubeChannelID,
			TelegramChannelID: m.TelegramChannelID,
			Queued:            append([]string(nil), m.Unprocessed...),
			ProcessedCount:    len(m.Processed),
		})
	}
	return queues
}
