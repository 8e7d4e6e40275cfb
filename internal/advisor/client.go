package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 20 * time.Second

// Client posts ride requests to the advisory service.
type Client struct {
	url     string
	apiKey  string
	timeout time.Duration
}

func NewClient(url, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{url: url, apiKey: apiKey, timeout: timeout}
}

// Advise sends one request. Every transport or status failure wraps
// ErrUnavailable so callers can offer a retry.
func (c *Client) Advise(ctx context.Context, req Request) (Insight, error) {
	if err := ctx.Err(); err != nil {
		return Insight{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = max(remaining, time.Millisecond)
		}
	}

	agent := fiber.Post(c.url)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return Insight{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	agent.JSON(req).Timeout(timeout)
	if c.apiKey != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.apiKey)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return Insight{}, fmt.Errorf("%w: %v", ErrUnavailable, errs[0])
	}
	if code < 200 || code > 299 {
		return Insight{}, fmt.Errorf("%w: status %d", ErrUnavailable, code)
	}

	var insight Insight
	if err := json.Unmarshal(body, &insight); err != nil {
		return Insight{}, fmt.Errorf("%w: %v", ErrMalformedInsight, err)
	}
	return insight.normalize()
}
