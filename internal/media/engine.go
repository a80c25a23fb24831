package media

import "context"

// JoinInfo contains the external A/V provider credentials for a room.
type JoinInfo struct {
	URL      string `json:"url"`      // provider WebSocket URL
	Token    string `json:"token"`    // provider join token
	RoomName string `json:"roomName"` // provider room name
	Identity string `json:"identity"` // subject's identity in the room
}

// Engine abstracts the media backend that hosts the audio/video room.
// The session layer only mints join credentials; the room itself, and the
// independent verification of admission tokens, belong to the provider.
type Engine interface {
	GenerateJoinInfo(ctx context.Context, roomName string, subjectID int64, displayName string) (*JoinInfo, error)
}
