// Package telegram is a minimal Telegram Bot API client: long polling in,
// text and photo messages out.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aliexpress-dz/pricebot/internal/domain"
)

const defaultBaseURL = "https://api.telegram.org"

// Update is one inbound event from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *Peer  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// Peer identifies the sender of a message.
type Peer struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// APIError is a non-ok response from the Bot API.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// Client represents an HTTP client for the Telegram Bot API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Bot API client
func NewClient(token string) *Client {
	return NewClientWithBaseURL(token, defaultBaseURL)
}

// NewClientWithBaseURL creates a client against a custom API host,
// useful for tests
func NewClientWithBaseURL(token, baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			// Long-poll requests hold the connection open, so the
			// transport timeout must exceed the poll timeout.
			Timeout: 90 * time.Second,
		},
	}
}

// SendMessage sends a plain text message
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("text", text)
	return c.call(ctx, "sendMessage", params, nil)
}

// SendPhoto sends an image by URL with a caption
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("photo", photoURL)
	params.Set("caption", caption)
	return c.call(ctx, "sendPhoto", params, nil)
}

// GetUpdates long-polls for inbound updates with the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	params.Set("allowed_updates", `["message"]`)

	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + "/bot" + c.token + "/" + method

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}

	if !apiResp.OK {
		apiErr := &APIError{Code: apiResp.ErrorCode, Description: apiResp.Description}
		// 403 means the user blocked the bot; 400 covers deleted chats.
		if apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusBadRequest {
			return fmt.Errorf("%w: %s", domain.ErrRecipientUnreachable, apiErr)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}
