package state

// Prompt holds the instruction pair used when summarizing a video.
// The user prompt may contain a {transcript} placeholder.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Mapping ties one YouTube channel to one Telegram chat, together with
// the bookkeeping of which uploads were already handled.
type Mapping struct {
	YouTubeChannelID  string   `json:"youtube_channel_id"`
	TelegramChannelID string   `json:"telegram_channel_id"`
	Prompt            Prompt   `json:"prompt"`
	Processed         []string `json:"processed_videos"`
	Unprocessed       []string `json:"unprocessed_videos"`
}

// Seen reports whether the video is already queued or done.
func (m *Mapping) Seen(videoID string) bool {
	for _, id := range m.Processed {
		if id == videoID {
			return true
		}
	}
	for _, id := range m.Unprocessed {
		if id == videoID {
			return true
		}
	}
	return false
}

// Enqueue appends the video to the unprocessed queue unless it was
// seen before.
func (m *Mapping) Enqueue(videoID string) bool {
	if m.Seen(videoID) {
		return false
	}
	m.Unprocessed = append(m.Unprocessed, videoID)
	return true
}

// MarkProcessed moves the video out of the unprocessed queue and
// records it as done. Marking a video that was never queued still
// records it, which is how Shorts are skipped for good.
func (m *Mapping) MarkProcessed(videoID string) {
	for i, id := range m.Unprocessed {
		if id == videoID {
			m.Unprocessed = append(m.Unprocessed[:i], m.Unprocessed[i+1:]...)
			break
		}
	}
	for _, id := range m.Processed {
		if id == videoID {
			return
		}
	}
	m.Processed = append(m.Processed, videoID)
}
