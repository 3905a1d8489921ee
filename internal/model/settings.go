package model

// Settings is the process-wide warning configuration. Defaults are written
// at first start and mutated only through the coordinator; annotation and
// voting read them on each page evaluation.
type Settings struct {
	ShowChannelHeader bool `json:"showChannelHeader"`
	ShowVideoTitle    bool `json:"showVideoTitle"`
	ShowVoting        bool `json:"showVoting"`
	VoteThreshold     int  `json:"voteThreshold"`
	APISyncEnabled    bool `json:"apiSyncEnabled"`
}

// DefaultSettings returns the install-time defaults.
func DefaultSettings() Settings {
	return Settings{
		ShowChannelHeader: true,
		ShowVideoTitle:    true,
		ShowVoting:        true,
		VoteThreshold:     10,
		APISyncEnabled:    true,
	}
}

// Normalize clamps invalid values back to usable ones.
func (s Settings) Normalize() Settings {
	if s.VoteThreshold < 1 {
		s.VoteThreshold = 1
	}
	return s
}
