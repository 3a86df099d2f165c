package ws

// Event types pushed to room feeds.
const (
	TypeState          = "state"           // progress snapshot on connect
	TypeProgressUpdate = "progress_update" // one member completed a module
	TypeModuleComplete = "module_complete" // whole room completed a module
	TypeRoomReset      = "room_reset"      // demo room cycled back to a fresh run
	TypeRoomClosed     = "room_closed"     // ordinary room torn down
	TypePeerJoined     = "peer_joined"
	TypePeerLeft       = "peer_left"
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type StatePayload struct {
	RoomID           string               `json:"room_id"`
	TotalModules     int                  `json:"total_modules"`
	CompletedModules []int                `json:"completed_modules"`
	Members          []MemberProgressItem `json:"members"`
}

type MemberProgressItem struct {
	UserID           int64  `json:"user_id"`
	Username         string `json:"username"`
	CompletedModules []int  `json:"completed_modules"`
}

type ProgressPayload struct {
	RoomID       string `json:"room_id"`
	UserID       int64  `json:"user_id,omitempty"`
	ModuleNumber int    `json:"module_number,omitempty"`
}

type PeerEventPayload struct {
	RoomID string `json:"room_id"`
	UserID int64  `json:"user_id"`
}
