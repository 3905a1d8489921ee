package coordinator

import (
	"context"
	"fmt"

	"github.com/orthrauku-dev/yt-sus/internal/model"
)

// VoteAPI is the slice of the voting/remote layer the dispatcher needs.
type VoteAPI interface {
	// Votes returns the (possibly cached) vote count for a channel.
	Votes(ctx context.Context, channelID string) (int, error)
	// Vote submits one vote and returns the resulting count.
	Vote(ctx context.Context, channelID, channelName string) (int, error)
}

// Refresher triggers an immediate remote sync.
type Refresher interface {
	Refresh(ctx context.Context) (model.FlaggedSet, error)
}

type handlerFunc func(ctx context.Context, msg model.Message) model.Reply

// Dispatcher routes inbound messages to typed handlers. Replaces the
// original stringly-matched action switch with an explicit table.
type Dispatcher struct {
	coord    *Coordinator
	votes    VoteAPI
	refresh  Refresher
	handlers map[model.Action]handlerFunc
}

func NewDispatcher(coord *Coordinator, votes VoteAPI, refresh Refresher) *Dispatcher {
	d := &Dispatcher{coord: coord, votes: votes, refresh: refresh}
	d.handlers = map[model.Action]handlerFunc{
		model.ActionGetHighlightedChannels: d.getHighlightedChannels,
		model.ActionToggleChannel:          d.toggleChannel,
		model.ActionAddChannel:             d.addChannel,
		model.ActionClearAll:               d.clearAll,
		model.ActionClearAutoAdded:         d.clearAutoAdded,
		model.ActionClearManualAdded:       d.clearManualAdded,
		model.ActionRefreshFromAPI:         d.refreshFromAPI,
		model.ActionToggleAPISync:          d.toggleAPISync,
		model.ActionGetSettings:            d.getSettings,
		model.ActionUpdateSettings:         d.updateSettings,
		model.ActionGetChannelVotes:        d.getChannelVotes,
		model.ActionVoteChannel:            d.voteChannel,
	}
	return d
}

// Dispatch handles one message. Unknown actions produce an error reply,
// never a panic: peers may be newer than the coordinator.
func (d *Dispatcher) Dispatch(ctx context.Context, msg model.Message) model.Reply {
	h, ok := d.handlers[msg.Action]
	if !ok {
		return errReply(fmt.Errorf("unknown action %q", msg.Action))
	}
	// Remember the channel the peer last pointed at, so a bare toggle
	// (the context-menu gesture) has a target.
	if msg.ChannelID != "" {
		d.coord.SetLastRightClicked(msg.ChannelID)
	}
	return h(ctx, msg)
}

func errReply(err error) model.Reply {
	return model.Reply{Success: false, Error: err.Error()}
}

func (d *Dispatcher) getHighlightedChannels(ctx context.Context, _ model.Message) model.Reply {
	set, err := d.coord.Channels(ctx)
	if err != nil {
		return errReply(err)
	}
	return model.Reply{Success: true, Channels: set}
}

func (d *Dispatcher) toggleChannel(ctx context.Context, msg model.Message) model.Reply {
	id := msg.ChannelID
	if id == "" {
		id = d.coord.LastRightClicked()
	}
	if id == "" {
		return errReply(fmt.Errorf("toggleChannel requires a channel"))
	}
	on, err := d.coord.Toggle(ctx, id, msg.ChannelName, msg.ChannelHandle)
	if err != nil {
		return errReply(err)
	}
	return model.Reply{Success: true, Highlighted: &on}
}

func (d *Dispatcher) addChannel(ctx context.Context, msg model.Message) model.Reply {
	if err := d.coord.Add(ctx, msg.ChannelID, msg.ChannelName, msg.Votes, model.SourceVoteThreshold); err != nil {
		return errReply(err)
	}
	return model.Reply{Success: true}
}

func (d *Dispatcher) clearAll(ctx context.Context, _ model.Message) model.Reply {
	if err := d.coord.ClearAll(ctx); err != nil {
		return errReply(err)
	}
	return model.Reply{Success: true}
}

func (d *Dispatcher) clearAutoAdded(ctx context.Context, _ model.Message) model.Reply {
	if err := d.coord.ClearAutoAdded(ctx); err != nil {
		return errReply(err)
	}
	return model.Reply{Success: true}
}

func (d *Dispatcher) clearManualAdded(ctx context.Context, _ model.Message) model.Reply {
	if err := d.coord.ClearManualAdded(ctx); err != nil {
		return errReply(err)
	}
	return model.Reply{Success: true}
}

func (d *Dispatcher) refreshFromAPI(ctx context.Context, _ model.Message) model.Reply {
	if d.refresh == nil {
		return errReply(fmt.Errorf("remote sync not configured"))
	}
	set, err := d.refresh.Refresh(ctx)
	if err != nil {
		return errReply(err)
	}
	return model.Reply{Success: true, Channels: set}
}

func (d *Dispatcher) toggleAPISync(ctx context.Context, msg model.Message) model.Reply {
	if msg.Enabled == nil {
		return errReply(fmt.Errorf("toggleAPISync requires enabled"))
	}
	if err := d.coord.SetAPISync(ctx, *msg.Enabled); err != nil {
		return errReply(err)
	}
	return model.Reply{Success: true}
}

func (d *Dispatcher) getSettings(ctx context.Context, _ model.Message) model.Reply {
	s, err := d.coord.Settings(ctx)
	if err != nil {
		return errReply(err)
	}
	return model.Reply{Success: true, Settings: &s}
}

func (d *Dispatcher) updateSettings(ctx context.Context, msg model.Message) model.Reply {
	if msg.Settings == nil {
		return errReply(fmt.Errorf("updateSettings requires settings"))
	}
	if err := d.coord.UpdateSettings(ctx, *msg.Settings); err != nil {
		return errReply(err)
	}
	return model.Reply{Success: true}
}

func (d *Dispatcher) getChannelVotes(ctx context.Context, msg model.Message) model.Reply {
	if d.votes == nil {
		return errReply(fmt.Errorf("remote sync not configured"))
	}
	n, err := d.votes.Votes(ctx, msg.ChannelID)
	if err != nil {
		return errReply(err)
	}
	return model.Reply{Success: true, Votes: &n}
}

func (d *Dispatcher) voteChannel(ctx context.Context, msg model.Message) model.Reply {
	if d.votes == nil {
		return errReply(fmt.Errorf("remote sync not configured"))
	}
	n, err := d.votes.Vote(ctx, msg.ChannelID, msg.ChannelName)
	if err != nil {
		return errReply(err)
	}
	return model.Reply{Success: true, Votes: &n}
}
