package models

import "time"

// Quality selects which end of the bitrate range resolution prefers.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityNormal Quality = "normal"
	QualityHigh   Quality = "high"
)

// Valid reports whether q is a known quality level.
func (q Quality) Valid() bool {
	switch q {
	case QualityLow, QualityNormal, QualityHigh:
		return true
	}
	return false
}

// StreamDescriptor is the resolved, directly-playable URL pair for a
// catalog entry. Either URL may be empty. Immutable once produced; owned
// by the cache entry holding it and discarded on process restart.
type StreamDescriptor struct {
	AudioURL   string `json:"audio_url,omitempty"`
	VideoURL   string `json:"video_url,omitempty"`
	Provenance string `json:"provenance"`
}

// Empty reports whether the descriptor carries no playable URL at all.
func (d StreamDescriptor) Empty() bool {
	return d.AudioURL == "" && d.VideoURL == ""
}

// StreamFormat is a provider-agnostic media format candidate. Both mirror
// response shapes are normalized into this before quality selection.
type StreamFormat struct {
	URL      string
	Bitrate  int // bits per second
	MimeType string
	HasAudio bool
	HasVideo bool
}

// User is the authenticated identity owning a set of devices.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// CommandType enumerates remote-control commands.
type CommandType string

const (
	CommandPlayPause CommandType = "PLAY_PAUSE"
	CommandSeek      CommandType = "SEEK"
	CommandSkip      CommandType = "SKIP"
	CommandVolume    CommandType = "VOLUME"
	CommandSetTrack  CommandType = "SET_TRACK"
)

// Command is a remote-control instruction from a controller device to the
// active device. It is not a standalone entity: the relay translates it
// into a partial update of the target's device row.
type Command struct {
	Type  CommandType `json:"type"`
	Value any         `json:"value,omitempty"`
}

// CommandAnnotation is the side-channel instruction piggy-backed onto a
// track snapshot for commands with no dedicated row field (SKIP). The
// target's playback loop must strip it after acting on it.
type CommandAnnotation struct {
	Type  CommandType `json:"type"`
	Value string      `json:"value"`
}

// TrackSnapshot is the "now playing" track as written into a device row.
type TrackSnapshot struct {
	ID         string             `json:"id"`
	Title      string             `json:"title,omitempty"`
	Artist     string             `json:"artist,omitempty"`
	Album      string             `json:"album,omitempty"`
	Duration   int                `json:"duration,omitempty"`
	ArtworkURL string             `json:"artwork_url,omitempty"`
	Command    *CommandAnnotation `json:"_command,omitempty"`
}

// Device is one installation's row in the shared store. Any device owned
// by the same user may write any field; the last write per field wins.
type Device struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	IsActive     bool           `json:"is_active"`
	LastSeen     time.Time      `json:"last_seen"`
	CurrentTrack *TrackSnapshot `json:"current_track,omitempty"`
	PositionMS   int            `json:"position_ms"`
	IsPlaying    bool           `json:"is_playing"`
	Volume       float64        `json:"volume"`
	QueueIDs     []string       `json:"queue_ids,omitempty"`
}

// SeenWithin reports whether the device's last heartbeat is no older than
// the given window.
func (d Device) SeenWithin(window time.Duration, now time.Time) bool {
	return now.Sub(d.LastSeen) <= window
}

// PlaybackSnapshot is the full playback state handed over on transfer.
type PlaybackSnapshot struct {
	CurrentTrack *TrackSnapshot `json:"current_track,omitempty"`
	PositionMS   int            `json:"position_ms"`
	IsPlaying    bool           `json:"is_playing"`
	Volume       float64        `json:"volume"`
	QueueIDs     []string       `json:"queue_ids,omitempty"`
}

// SearchResult is a catalog entry returned by mirror search.
type SearchResult struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist,omitempty"`
	Duration   int    `json:"duration,omitempty"`
	ArtworkURL string `json:"artwork_url,omitempty"`
}
