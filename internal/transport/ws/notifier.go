package ws

// Notifier fans progress-service events out to a room's feed. Broadcasts are
// best-effort and never block the completing request.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) MemberCompleted(roomID string, userID int64, module int) {
	n.hub.Broadcast(roomID, Message{
		Type: TypeProgressUpdate,
		Payload: ProgressPayload{
			RoomID:       roomID,
			UserID:       userID,
			ModuleNumber: module,
		},
	})
}

func (n *Notifier) RoomModuleCompleted(roomID string, module int) {
	n.hub.Broadcast(roomID, Message{
		Type: TypeModuleComplete,
		Payload: ProgressPayload{
			RoomID:       roomID,
			ModuleNumber: module,
		},
	})
}

func (n *Notifier) RoomReset(roomID string) {
	n.hub.Broadcast(roomID, Message{
		Type:    TypeRoomReset,
		Payload: ProgressPayload{RoomID: roomID},
	})
}

func (n *Notifier) RoomClosed(roomID string) {
	n.hub.Broadcast(roomID, Message{
		Type:    TypeRoomClosed,
		Payload: ProgressPayload{RoomID: roomID},
	})
}
