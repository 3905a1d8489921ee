package model

// Action enumerates the coordinator message actions. Every inbound
// message carries exactly one of these tags; unknown tags are rejected
// at dispatch.
type Action string

const (
	ActionGetHighlightedChannels Action = "getHighlightedChannels"
	ActionToggleChannel          Action = "toggleChannel"
	ActionAddChannel             Action = "addChannel"
	ActionClearAll               Action = "clearAll"
	ActionClearAutoAdded         Action = "clearAutoAdded"
	ActionClearManualAdded       Action = "clearManualAdded"
	ActionRefreshFromAPI         Action = "refreshFromAPI"
	ActionToggleAPISync          Action = "toggleAPISync"
	ActionGetSettings            Action = "getSettings"
	ActionUpdateSettings         Action = "updateSettings"
	ActionGetChannelVotes        Action = "getChannelVotes"
	ActionVoteChannel            Action = "voteChannel"
)

// Message is the envelope for one coordinator request.
type Message struct {
	Action        Action    `json:"action"`
	ChannelID     string    `json:"channelId,omitempty"`
	ChannelName   string    `json:"channelName,omitempty"`
	ChannelHandle string    `json:"channelHandle,omitempty"`
	Votes         int       `json:"votes,omitempty"`
	Enabled       *bool     `json:"enabled,omitempty"`
	Settings      *Settings `json:"settings,omitempty"`
}

// Reply is the coordinator's response envelope. Fields beyond Success
// are populated per action.
type Reply struct {
	Success     bool       `json:"success"`
	Error       string     `json:"error,omitempty"`
	Highlighted *bool      `json:"highlighted,omitempty"`
	Channels    FlaggedSet `json:"channels,omitempty"`
	Settings    *Settings  `json:"settings,omitempty"`
	Votes       *int       `json:"votes,omitempty"`
}

// Event is a broadcast from the coordinator to every subscribed page
// session, mirroring the tab broadcasts of the original design.
type Event struct {
	Type     EventType  `json:"type"`
	Channels FlaggedSet `json:"channels,omitempty"`
	Settings *Settings  `json:"settings,omitempty"`
}

// EventType tags a broadcast event.
type EventType string

const (
	EventUpdateHighlights EventType = "updateHighlights"
	EventUpdateSettings   EventType = "updateSettings"
)
