package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/questroom/progress-service/internal/domain"
	"github.com/questroom/progress-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type TokenParser interface {
	ClaimsFromToken(token string) (int64, domain.Role, error)
}

type MemberSvc interface {
	IsMember(ctx context.Context, roomID string, userID int64) (bool, error)
}

type ProgressSvc interface {
	RoomProgress(ctx context.Context, roomID string) (*service.RoomProgress, error)
}

type Server struct {
	upgrader    websocket.Upgrader
	hub         *Hub
	tokens      TokenParser
	memberSvc   MemberSvc
	progressSvc ProgressSvc

	pingEvery time.Duration
}

func NewServer(hub *Hub, tokens TokenParser, member MemberSvc, progress ProgressSvc) *Server {
	return &Server{
		hub:         hub,
		tokens:      tokens,
		memberSvc:   member,
		progressSvc: progress,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws/rooms/{id}?access_token=...
// Only current members of the room may subscribe to its feed.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	accessToken := strings.TrimSpace(r.URL.Query().Get("access_token"))
	if accessToken == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	uid, _, err := s.tokens.ClaimsFromToken(accessToken)
	if err != nil {
		http.Error(w, "invalid access_token", http.StatusUnauthorized)
		return
	}

	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	member, err := s.memberSvc.IsMember(r.Context(), roomID, uid)
	if err != nil {
		http.Error(w, "membership check failed", http.StatusInternalServerError)
		return
	}
	if !member {
		http.Error(w, "not a member of this room", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, roomID, uid)
	s.hub.Add(c)

	if err := s.sendState(r.Context(), c); err != nil {
		slog.Warn("ws send initial state failed", "room", roomID, "user", uid, "err", err)
	}

	s.hub.Broadcast(roomID, Message{
		Type:    TypePeerJoined,
		Payload: PeerEventPayload{RoomID: roomID, UserID: uid},
	})

	done := make(chan struct{})
	go s.pingLoop(c, done)
	s.readLoop(c)
	close(done)

	s.hub.Remove(c)
	s.hub.Broadcast(roomID, Message{
		Type:    TypePeerLeft,
		Payload: PeerEventPayload{RoomID: roomID, UserID: uid},
	})

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "room", roomID, "user", uid, "err", err)
	}
}

func (s *Server) sendState(ctx context.Context, c *wsConn) error {
	progress, err := s.progressSvc.RoomProgress(ctx, c.roomID)
	if err != nil {
		return err
	}

	members := make([]MemberProgressItem, 0, len(progress.Members))
	for _, m := range progress.Members {
		members = append(members, MemberProgressItem{
			UserID:           m.UserID,
			Username:         m.Username,
			CompletedModules: m.CompletedModules,
		})
	}

	return c.Send(Message{
		Type: TypeState,
		Payload: StatePayload{
			RoomID:           c.roomID,
			TotalModules:     progress.TotalModules,
			CompletedModules: progress.CompletedModules,
			Members:          members,
		},
	})
}

// readLoop drains client frames; the feed is server-push only, so anything
// but control frames is ignored.
func (s *Server) readLoop(c *wsConn) {
	c.conn.SetReadLimit(1024)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) pingLoop(c *wsConn, done <-chan struct{}) {
	t := time.NewTicker(s.pingEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if err := c.ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
