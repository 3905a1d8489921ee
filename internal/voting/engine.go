// Package voting layers per-session voting rules and the vote-threshold
// auto-flag on top of the remote vote backend.
package voting

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/orthrauku-dev/yt-sus/internal/coordinator"
	"github.com/orthrauku-dev/yt-sus/internal/identity"
	"github.com/orthrauku-dev/yt-sus/internal/model"
)

// ErrAlreadyVoted is returned when a channel already received a vote in
// this agent session.
var ErrAlreadyVoted = errors.New("already voted for this channel")

// ButtonState is what a voting control should render for a channel.
type ButtonState string

const (
	StateUnvoted ButtonState = "unvoted"
	StateVoting  ButtonState = "voting"
	StateVoted   ButtonState = "voted"
)

// Backend submits and reads community votes. The remote syncer
// satisfies it.
type Backend interface {
	Votes(ctx context.Context, channelID string) (int, error)
	Vote(ctx context.Context, channelID, channelName string) (int, error)
}

// Engine enforces one vote per channel per session and flags a channel
// locally the first time its community count crosses the configured
// threshold. It implements the dispatcher's vote API.
type Engine struct {
	backend Backend
	coord   *coordinator.Coordinator

	mu       sync.Mutex
	voted    map[string]struct{}
	inflight map[string]struct{}
	// autoFlagged remembers threshold flags applied this session, so a
	// user who removes one is not fought for the rest of the session.
	autoFlagged map[string]struct{}
}

func NewEngine(backend Backend, coord *coordinator.Coordinator) *Engine {
	return &Engine{
		backend:     backend,
		coord:       coord,
		voted:       make(map[string]struct{}),
		inflight:    make(map[string]struct{}),
		autoFlagged: make(map[string]struct{}),
	}
}

func sessionKey(channelID string) string {
	if identity.IsHandle(channelID) {
		return strings.ToLower(channelID)
	}
	return channelID
}

// State reports what the voting control for channelID should show.
func (e *Engine) State(channelID string) ButtonState {
	key := sessionKey(channelID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.inflight[key]; ok {
		return StateVoting
	}
	if _, ok := e.voted[key]; ok {
		return StateVoted
	}
	return StateUnvoted
}

// Votes returns the community vote count and applies the threshold
// check on what it saw.
func (e *Engine) Votes(ctx context.Context, channelID string) (int, error) {
	n, err := e.backend.Votes(ctx, channelID)
	if err != nil {
		return 0, err
	}
	e.evaluate(ctx, channelID, "", n)
	return n, nil
}

// ErrVotingDisabled is returned when the voting widget is switched off
// in settings.
var ErrVotingDisabled = errors.New("voting is disabled in settings")

// Vote submits one vote. A second vote for the same channel in this
// session is rejected without touching the backend. A backend error
// reverts the control to unvoted.
func (e *Engine) Vote(ctx context.Context, channelID, channelName string) (int, error) {
	settings, err := e.coord.Settings(ctx)
	if err != nil {
		return 0, err
	}
	if !settings.ShowVoting {
		return 0, ErrVotingDisabled
	}

	key := sessionKey(channelID)

	e.mu.Lock()
	if _, ok := e.voted[key]; ok {
		e.mu.Unlock()
		return 0, ErrAlreadyVoted
	}
	if _, ok := e.inflight[key]; ok {
		e.mu.Unlock()
		return 0, ErrAlreadyVoted
	}
	e.inflight[key] = struct{}{}
	e.mu.Unlock()

	n, err := e.backend.Vote(ctx, channelID, channelName)

	e.mu.Lock()
	delete(e.inflight, key)
	if err == nil {
		e.voted[key] = struct{}{}
	}
	e.mu.Unlock()

	if err != nil {
		return 0, err
	}
	e.evaluate(ctx, channelID, channelName, n)
	return n, nil
}

// evaluate flags the channel when the observed count reaches the
// configured threshold. The voting toggle gates the trigger as a
// whole, each channel is auto-flagged at most once per session, and
// never while it is already flagged.
func (e *Engine) evaluate(ctx context.Context, channelID, channelName string, votes int) {
	settings, err := e.coord.Settings(ctx)
	if err != nil {
		log.Printf("voting: settings read failed: %v", err)
		return
	}
	if !settings.ShowVoting {
		return
	}
	if votes < settings.VoteThreshold {
		return
	}

	key := sessionKey(channelID)
	e.mu.Lock()
	if _, ok := e.autoFlagged[key]; ok {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	set, err := e.coord.Channels(ctx)
	if err != nil {
		log.Printf("voting: channel read failed: %v", err)
		return
	}
	if identity.IsFlagged(channelID, set) {
		return
	}

	if err := e.coord.Add(ctx, channelID, channelName, votes, model.SourceVoteThreshold); err != nil {
		log.Printf("voting: threshold flag failed for %s: %v", channelID, err)
		return
	}
	e.mu.Lock()
	e.autoFlagged[key] = struct{}{}
	e.mu.Unlock()
	log.Printf("voting: %s crossed threshold (%d votes), flagged locally", channelID, votes)
}
