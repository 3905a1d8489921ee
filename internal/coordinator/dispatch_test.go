package coordinator

import (
	"context"
	"fmt"
	"testing"

	"github.com/orthrauku-dev/yt-sus/internal/model"
)

type fakeVoteAPI struct {
	votes   map[string]int
	voteErr error
}

func (f *fakeVoteAPI) Votes(_ context.Context, id string) (int, error) {
	return f.votes[id], nil
}

func (f *fakeVoteAPI) Vote(_ context.Context, id, _ string) (int, error) {
	if f.voteErr != nil {
		return 0, f.voteErr
	}
	f.votes[id]++
	return f.votes[id], nil
}

func newTestDispatcher() (*Dispatcher, *fakeVoteAPI) {
	votes := &fakeVoteAPI{votes: map[string]int{}}
	return NewDispatcher(newTestCoordinator(), votes, nil), votes
}

func TestDispatchUnknownAction(t *testing.T) {
	d, _ := newTestDispatcher()
	reply := d.Dispatch(context.Background(), model.Message{Action: "explodeEverything"})
	if reply.Success {
		t.Error("unknown action reported success")
	}
	if reply.Error == "" {
		t.Error("unknown action carries no error message")
	}
}

func TestDispatchToggleAndList(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDispatcher()

	reply := d.Dispatch(ctx, model.Message{
		Action:      model.ActionToggleChannel,
		ChannelID:   "@Foo",
		ChannelName: "Foo",
	})
	if !reply.Success || reply.Highlighted == nil || !*reply.Highlighted {
		t.Fatalf("toggle reply = %+v, want success+highlighted", reply)
	}

	reply = d.Dispatch(ctx, model.Message{Action: model.ActionGetHighlightedChannels})
	if !reply.Success || len(reply.Channels) != 1 {
		t.Errorf("list reply = %+v, want one channel", reply)
	}
}

func TestDispatchSettings(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDispatcher()

	reply := d.Dispatch(ctx, model.Message{Action: model.ActionGetSettings})
	if !reply.Success || reply.Settings == nil {
		t.Fatalf("getSettings reply = %+v", reply)
	}

	s := *reply.Settings
	s.ShowVoting = false
	reply = d.Dispatch(ctx, model.Message{Action: model.ActionUpdateSettings, Settings: &s})
	if !reply.Success {
		t.Fatalf("updateSettings reply = %+v", reply)
	}

	reply = d.Dispatch(ctx, model.Message{Action: model.ActionGetSettings})
	if reply.Settings.ShowVoting {
		t.Error("ShowVoting still true after update")
	}

	reply = d.Dispatch(ctx, model.Message{Action: model.ActionUpdateSettings})
	if reply.Success {
		t.Error("updateSettings without settings payload must fail")
	}
}

func TestDispatchVotes(t *testing.T) {
	ctx := context.Background()
	d, votes := newTestDispatcher()
	votes.votes["UC1"] = 3

	reply := d.Dispatch(ctx, model.Message{Action: model.ActionGetChannelVotes, ChannelID: "UC1"})
	if !reply.Success || reply.Votes == nil || *reply.Votes != 3 {
		t.Fatalf("getChannelVotes reply = %+v, want 3", reply)
	}

	reply = d.Dispatch(ctx, model.Message{Action: model.ActionVoteChannel, ChannelID: "UC1", ChannelName: "One"})
	if !reply.Success || *reply.Votes != 4 {
		t.Errorf("voteChannel reply = %+v, want 4", reply)
	}

	votes.voteErr = fmt.Errorf("server unreachable")
	reply = d.Dispatch(ctx, model.Message{Action: model.ActionVoteChannel, ChannelID: "UC1"})
	if reply.Success {
		t.Error("vote failure reported success")
	}
}

func TestDispatchToggleAPISyncValidation(t *testing.T) {
	d, _ := newTestDispatcher()
	reply := d.Dispatch(context.Background(), model.Message{Action: model.ActionToggleAPISync})
	if reply.Success {
		t.Error("toggleAPISync without enabled must fail")
	}

	enabled := false
	reply = d.Dispatch(context.Background(), model.Message{Action: model.ActionToggleAPISync, Enabled: &enabled})
	if !reply.Success {
		t.Errorf("toggleAPISync reply = %+v", reply)
	}
}

func TestDispatchRefreshWithoutSync(t *testing.T) {
	d, _ := newTestDispatcher()
	reply := d.Dispatch(context.Background(), model.Message{Action: model.ActionRefreshFromAPI})
	if reply.Success {
		t.Error("refreshFromAPI with no remote configured must fail")
	}
}

func TestDispatchBareToggleUsesLastPointedChannel(t *testing.T) {
	d, _ := newTestDispatcher()
	ctx := context.Background()

	// No channel seen yet: a bare toggle has no target.
	reply := d.Dispatch(ctx, model.Message{Action: model.ActionToggleChannel})
	if reply.Success {
		t.Fatal("bare toggle with no prior channel must fail")
	}

	// Any message carrying a channel id records it as the target.
	d.Dispatch(ctx, model.Message{Action: model.ActionGetChannelVotes, ChannelID: "@aifarm"})

	reply = d.Dispatch(ctx, model.Message{Action: model.ActionToggleChannel})
	if !reply.Success || reply.Highlighted == nil || !*reply.Highlighted {
		t.Fatalf("bare toggle reply = %+v, want highlighted true", reply)
	}

	reply = d.Dispatch(ctx, model.Message{Action: model.ActionGetHighlightedChannels})
	if _, ok := reply.Channels["@aifarm"]; !ok {
		t.Errorf("channels = %v, want @aifarm flagged", reply.Channels)
	}
}
