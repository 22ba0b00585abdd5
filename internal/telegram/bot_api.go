package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const DefaultAPIBaseURL = "https://api.telegram.org"

// BotClient implements API against the Telegram Bot HTTP API.
type BotClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewBotClient(baseURL, token string, timeout time.Duration) *BotClient {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &BotClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (c *BotClient) SendPhoto(ctx context.Context, chatID, photoURL, caption string) (int64, error) {
	resp, err := c.call(ctx, "sendPhoto", map[string]any{
		"chat_id":    chatID,
		"photo":      photoURL,
		"caption":    caption,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return 0, err
	}
	return resp.Result.MessageID, nil
}

func (c *BotClient) SendMessage(ctx context.Context, chatID, text string, replyTo int64) (int64, error) {
	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	}
	if replyTo != 0 {
		payload["reply_to_message_id"] = replyTo
	}
	resp, err := c.call(ctx, "sendMessage", payload)
	if err != nil {
		return 0, err
	}
	return resp.Result.MessageID, nil
}

func (c *BotClient) EditMessageText(ctx context.Context, chatID string, messageID int64, text string) error {
	_, err := c.call(ctx, "editMessageText", map[string]any{
		"chat_id":                  chatID,
		"message_id":               messageID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	})
	return err
}

func (c *BotClient) EditMessageCaption(ctx context.Context, chatID string, messageID int64, caption string) error {
	_, err := c.call(ctx, "editMessageCaption", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"caption":    caption,
		"parse_mode": "Markdown",
	})
	return err
}

func (c *BotClient) call(ctx context.Context, method string, payload map[string]any) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer httpResp.Body.Close()

	var resp apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("%s rejected: %s", method, resp.Description)
	}
	return &resp, nil
}

var _ API = (*BotClient)(nil)
