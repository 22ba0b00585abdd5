package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/JulianoL13/tube-summary-engine/internal/logs"
)

const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// recentUploadsLimit bounds how far back a channel check looks.
const recentUploadsLimit = 5

var ErrNotFound = errors.New("youtube: not found")

// Client talks to the YouTube Data API v3 over plain HTTP.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  logs.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger logs.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Upload is one entry of a channel's uploads playlist.
type Upload struct {
	VideoID      string
	Title        string
	PublishedAt  time.Time
	ThumbnailURL string
}

// Video is the detailed record behind an upload.
type Video struct {
	VideoID      string
	Title        string
	Description  string
	PublishedAt  time.Time
	ThumbnailURL string
	Duration     time.Duration
}

// IsShort reports whether the video looks like a YouTube Short. The
// API has no explicit flag, so length and the #shorts tag stand in.
func (v *Video) IsShort() bool {
	if v.Duration > 0 && v.Duration <= 3*time.Minute {
		return true
	}
	return containsShortsTag(v.Title) || containsShortsTag(v.Description)
}

type thumbnail struct {
	URL string `json:"url"`
}

type snippet struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	PublishedAt time.Time            `json:"publishedAt"`
	Thumbnails  map[string]thumbnail `json:"thumbnails"`
	ResourceID  struct {
		VideoID string `json:"videoId"`
	} `json:"resourceId"`
}

// pickThumbnail walks the sizes from best to worst.
func pickThumbnail(thumbs map[string]thumbnail) string {
	for _, size := range []string{"maxres", "standard", "high", "medium", "default"} {
		if t, ok := thumbs[size]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

// RecentUploads returns the newest uploads of a channel, newest first,
// as the uploads playlist orders them.
func (c *Client) RecentUploads(ctx context.Context, channelID string) ([]Upload, error) {
	playlistID, err := c.uploadsPlaylistID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	var body struct {
		Items []struct {
			Snippet snippet `json:"snippet"`
		} `json:"items"`
	}
	params := url.Values{
		"part":       {"snippet"},
		"playlistId": {playlistID},
		"maxResults": {fmt.Sprint(recentUploadsLimit)},
	}
	if err := c.get(ctx, "/playlistItems", params, &body); err != nil {
		return nil, fmt.Errorf("list uploads for %s: %w", channelID, err)
	}

	uploads := make([]Upload, 0, len(body.Items))
	for _, item := range body.Items {
		if item.Snippet.ResourceID.VideoID == "" {
			continue
		}
		uploads = append(uploads, Upload{
			VideoID:      item.Snippet.ResourceID.VideoID,
			Title:        item.Snippet.Title,
			PublishedAt:  item.Snippet.PublishedAt,
			ThumbnailURL: pickThumbnail(item.Snippet.Thumbnails),
		})
	}
	return uploads, nil
}

func (c *Client) uploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	var body struct {
		Items []struct {
			ContentDetails struct {
				RelatedPlaylists struct {
					Uploads string `json:"uploads"`
				} `json:"relatedPlaylists"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	params := url.Values{
		"part": {"contentDetails"},
		"id":   {channelID},
	}
	if err := c.get(ctx, "/channels", params, &body); err != nil {
		return "", fmt.Errorf("lookup channel %s: %w", channelID, err)
	}
	if len(body.Items) == 0 {
		return "", fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
	}
	return body.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// Video fetches the full record for one video ID.
func (c *Client) Video(ctx context.Context, videoID string) (*Video, error) {
	var body struct {
		Items []struct {
			ID             string  `json:"id"`
			Snippet        snippet `json:"snippet"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	params := url.Values{
		"part": {"snippet,contentDetails"},
		"id":   {videoID},
	}
	if err := c.get(ctx, "/videos", params, &body); err != nil {
		return nil, fmt.Errorf("lookup video %s: %w", videoID, err)
	}
	if len(body.Items) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}

	item := body.Items[0]
	duration, err := parseISODuration(item.ContentDetails.Duration)
	if err != nil {
		c.logger.Warn("unparseable video duration", "video_id", videoID, "duration", item.ContentDetails.Duration)
		duration = 0
	}

	return &Video{
		VideoID:      item.ID,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		PublishedAt:  item.Snippet.PublishedAt,
		ThumbnailURL: pickThumbnail(item.Snippet.Thumbnails),
		Duration:     duration,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
