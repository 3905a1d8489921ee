package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/orthrauku-dev/yt-sus/internal/model"
)

// agentClient wraps the agent's POST /message endpoint.
type agentClient struct {
	baseURL string
	http    http.Client
}

// send posts one message and decodes the reply. An unreachable agent is
// reported as a plain error; commands surface it and exit without a
// stack of wrapping.
func (c *agentClient) send(msg model.Message) (*model.Reply, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	c.http.Timeout = 5 * time.Second
	resp, err := c.http.Post(c.baseURL+"/message", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("agent unreachable at %s (is it running?): %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	var reply model.Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if !reply.Success {
		return nil, fmt.Errorf("agent: %s", reply.Error)
	}
	return &reply, nil
}
