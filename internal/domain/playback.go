package domain

import "time"

type PlaybackState string

const (
	PlaybackUnstarted PlaybackState = "unstarted"
	PlaybackPlaying   PlaybackState = "playing"
	PlaybackPaused    PlaybackState = "paused"
	PlaybackBuffering PlaybackState = "buffering"
	PlaybackEnded     PlaybackState = "ended"
	PlaybackCued      PlaybackState = "cued"
	PlaybackUnknown   PlaybackState = "unknown"
)

// ParsePlaybackState maps anything outside the known set to PlaybackUnknown.
func ParsePlaybackState(s string) PlaybackState {
	switch state := PlaybackState(s); state {
	case PlaybackUnstarted, PlaybackPlaying, PlaybackPaused, PlaybackBuffering,
		PlaybackEnded, PlaybackCued, PlaybackUnknown:
		return state
	default:
		return PlaybackUnknown
	}
}

// Playback mirrors what the display client last reported. It is advisory and may lag.
type Playback struct {
	State     PlaybackState `json:"state"`
	Position  float64       `json:"position"`
	Duration  *float64      `json:"duration,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
	VideoId   string        `json:"videoId"`
}

type PlaybackReport struct {
	State    string
	Position float64
	Duration *float64
	VideoId  string
}
