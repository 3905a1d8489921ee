package model

import "time"

// Source records how a channel entered the flagged set. It determines
// eligibility for the bulk-clear operations, which must preserve the
// other sources.
type Source string

const (
	SourceManual        Source = "manual"
	SourceVoteThreshold Source = "vote-threshold"
	SourceRemoteSync    Source = "remote-sync"
)

// FlaggedChannel is one entry in the flagged-channel set.
type FlaggedChannel struct {
	// ID is the canonical identifier: an opaque platform channel id
	// (UC...), an @handle, or a legacy custom/user slug.
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Handle  string    `json:"handle,omitempty"`
	AddedAt time.Time `json:"addedAt"`
	Source  Source    `json:"source"`
	// Votes is the last known community vote count. Only meaningful for
	// vote-sourced or synced entries.
	Votes int `json:"votes,omitempty"`
}

// FlaggedSet maps canonical channel id to its entry.
type FlaggedSet map[string]FlaggedChannel

// RemoteChannel is one entry of the community flagged-channel list
// as served by GET /api/flagged_channels.
type RemoteChannel struct {
	ChannelName string `json:"channelName"`
	FlaggedDate string `json:"flaggedDate"`
	Reason      string `json:"reason"`
	Votes       int    `json:"votes"`
}

// CheckChannelResponse is the body of GET /api/check_channel.
type CheckChannelResponse struct {
	Flagged   bool           `json:"flagged"`
	ChannelID string         `json:"channelId"`
	Votes     int            `json:"votes"`
	Details   *RemoteChannel `json:"details,omitempty"`
}

// VoteChannelRequest is the body of POST /api/vote_channel.
type VoteChannelRequest struct {
	ChannelID   string `json:"channelId"`
	ChannelName string `json:"channelName"`
}

// VoteChannelResponse is the body returned after a vote submission.
type VoteChannelResponse struct {
	Votes int `json:"votes"`
}
