package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type wsConn struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	roomID string
	userID int64
}

func newWsConn(conn *websocket.Conn, roomID string, userID int64) *wsConn {
	return &wsConn{conn: conn, roomID: roomID, userID: userID}
}

func (c *wsConn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

func (c *wsConn) UserID() int64  { return c.userID }
func (c *wsConn) RoomID() string { return c.roomID }
