// Package remote talks to the community vote API and schedules the
// periodic flagged-list sync.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/orthrauku-dev/yt-sus/internal/model"
)

const (
	requestTimeout = 10 * time.Second
	maxGetRetries  = 2
	retryBackoff   = 500 * time.Millisecond
)

// Client is a thin HTTP client for the community API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// FetchFlaggedChannels retrieves the full community flagged list.
func (c *Client) FetchFlaggedChannels(ctx context.Context) (map[string]model.RemoteChannel, error) {
	var out map[string]model.RemoteChannel
	if err := c.getJSON(ctx, c.baseURL+"/api/flagged_channels", &out); err != nil {
		return nil, fmt.Errorf("remote: fetch flagged channels: %w", err)
	}
	if out == nil {
		out = map[string]model.RemoteChannel{}
	}
	return out, nil
}

// CheckChannel returns the community vote count for one channel. An
// unknown channel is not an error; it simply has zero votes.
func (c *Client) CheckChannel(ctx context.Context, channelID string) (int, error) {
	u := c.baseURL + "/api/check_channel?channelId=" + url.QueryEscape(channelID)
	var resp model.CheckChannelResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return 0, fmt.Errorf("remote: check channel %s: %w", channelID, err)
	}
	return resp.Votes, nil
}

// SubmitVote posts one vote and returns the server's authoritative
// count. Votes are not retried: the server deduplicates per voter, but
// a retry storm after a flaky 500 still isn't worth it.
func (c *Client) SubmitVote(ctx context.Context, channelID, channelName string) (int, error) {
	body, err := json.Marshal(model.VoteChannelRequest{ChannelID: channelID, ChannelName: channelName})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/vote_channel", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("remote: submit vote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("remote: submit vote: unexpected status %d", resp.StatusCode)
	}

	var vr model.VoteChannelResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return 0, fmt.Errorf("remote: submit vote: decode response: %w", err)
	}
	return vr.Votes, nil
}

// getJSON issues a GET with bounded retries on transient failures.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= maxGetRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.getJSONOnce(ctx, url, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}

func (c *Client) getJSONOnce(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
