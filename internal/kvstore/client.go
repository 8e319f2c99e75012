package kvstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"realtime-chat/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client speaks the store's REST protocol: one command per request, command
// and arguments as path segments, bearer-token auth, and a {"result": ...}
// response envelope.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a store client. The handle is safe for concurrent reuse
// across requests.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type resultEnvelope struct {
	Result jsoniter.RawMessage `json:"result"`
	Error  string              `json:"error"`
}

func (c *Client) command(ctx context.Context, command string, args ...string) (jsoniter.RawMessage, error) {
	start := time.Now()
	defer func() {
		observability.ObserveStoreCommand(command, time.Since(start).Seconds())
	}()

	segments := make([]string, 0, len(args)+1)
	segments = append(segments, command)
	for _, arg := range args {
		segments = append(segments, url.PathEscape(arg))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+strings.Join(segments, "/"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store command %s: %w", command, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("store command %s: %w", command, err)
	}

	var envelope resultEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("store command %s: decode response: %w", command, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if envelope.Error != "" {
			return nil, fmt.Errorf("store command %s: %s", command, envelope.Error)
		}
		return nil, fmt.Errorf("store command %s: %s", command, resp.Status)
	}

	return envelope.Result, nil
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	result, err := c.command(ctx, "get", key)
	if err != nil {
		return "", err
	}
	if len(result) == 0 || string(result) == "null" {
		return "", ErrNil
	}
	var value string
	if err := json.Unmarshal(result, &value); err != nil {
		return "", err
	}
	return value, nil
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	_, err := c.command(ctx, "set", key, value)
	return err
}

func (c *Client) SAdd(ctx context.Context, key, member string) error {
	_, err := c.command(ctx, "sadd", key, member)
	return err
}

func (c *Client) SRem(ctx context.Context, key, member string) error {
	_, err := c.command(ctx, "srem", key, member)
	return err
}

func (c *Client) SIsMember(ctx context.Context, key, member string) (bool, error) {
	result, err := c.command(ctx, "sismember", key, member)
	if err != nil {
		return false, err
	}
	var membership int
	if err := json.Unmarshal(result, &membership); err != nil {
		return false, err
	}
	return membership == 1, nil
}

func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	result, err := c.command(ctx, "smembers", key)
	if err != nil {
		return nil, err
	}
	var members []string
	if err := json.Unmarshal(result, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) ZAdd(ctx context.Context, key string, score int64, member string) error {
	_, err := c.command(ctx, "zadd", key, strconv.FormatInt(score, 10), member)
	return err
}

func (c *Client) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	result, err := c.command(ctx, "zrange", key, strconv.FormatInt(start, 10), strconv.FormatInt(stop, 10))
	if err != nil {
		return nil, err
	}
	var members []string
	if err := json.Unmarshal(result, &members); err != nil {
		return nil, err
	}
	return members, nil
}

var _ Store = (*Client)(nil)
