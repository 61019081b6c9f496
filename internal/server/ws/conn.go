package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/logging"
	"github.com/dmitrijs2005/chitchat/internal/protocol"
	"github.com/dmitrijs2005/chitchat/internal/server/services"
	"github.com/gorilla/websocket"
	"go.uber.org/ratelimit"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 256
)

type outbound struct {
	data       []byte
	closeAfter bool
}

// Conn is one websocket connection. It is bound to a single identity for
// its whole life; anonymous connections (UserID "") only serve bootstrap
// events.
type Conn struct {
	ws      *websocket.Conn
	userID  string
	token   string
	limiter ratelimit.Limiter
	log     logging.Logger

	send      chan outbound
	done      chan struct{}
	closeOnce sync.Once

	expiryMu sync.Mutex
	expiry   *time.Timer

	// set by a handler to close the connection once its ack is written
	closeAfterAck bool
}

func newConn(ws *websocket.Conn, userID, token string, limiter ratelimit.Limiter, log logging.Logger) *Conn {
	return &Conn{
		ws:      ws,
		userID:  userID,
		token:   token,
		limiter: limiter,
		log:     log,
		send:    make(chan outbound, sendBuffer),
		done:    make(chan struct{}),
	}
}

func (c *Conn) UserID() string {
	return c.userID
}

// Push queues a server event. It reports false when the connection is
// closed or its buffer is full; the event is dropped in both cases.
func (c *Conn) Push(event string, payload any) bool {
	f, err := protocol.NewPush(event, payload)
	if err != nil {
		c.log.Error(context.Background(), "push encode failed", "event", event, "error", err)
		return false
	}
	return c.enqueue(f, false)
}

// ForceLogout tells the client its session is over and closes the
// connection after the notice is written.
func (c *Conn) ForceLogout() {
	f, err := protocol.NewPush(protocol.EventForceLogout, services.ForceLogout{Message: protocol.SessionExpiredMessage})
	if err != nil {
		c.Close()
		return
	}
	if !c.enqueue(f, true) {
		c.Close()
	}
}

// armExpiry force-logs-out the connection once d has elapsed. The timer
// may fire before armExpiry returns when d is not positive.
func (c *Conn) armExpiry(d time.Duration) {
	c.expiryMu.Lock()
	defer c.expiryMu.Unlock()
	c.expiry = time.AfterFunc(d, c.ForceLogout)
}

// Close stops the writer; the reader ends once the peer goes away.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.expiryMu.Lock()
		if c.expiry != nil {
			c.expiry.Stop()
		}
		c.expiryMu.Unlock()
	})
}

func (c *Conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Conn) enqueue(f protocol.Frame, closeAfter bool) bool {
	if c.closed() {
		return false
	}
	data, err := json.Marshal(f)
	if err != nil {
		c.log.Error(context.Background(), "frame encode failed", "error", err)
		return false
	}
	select {
	case c.send <- outbound{data: data, closeAfter: closeAfter}:
		return true
	case <-c.done:
		return false
	default:
		c.log.Warn(context.Background(), "send buffer full, event dropped", "event", f.Event)
		return false
	}
}

func (c *Conn) ack(id uint64, payload any, closeAfter bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.log.Error(context.Background(), "ack encode failed", "error", err)
		data = []byte(`{"error":"Internal server error"}`)
	}
	if !c.enqueue(protocol.Frame{Ack: id, Data: data}, closeAfter) && closeAfter {
		c.Close()
	}
}

// readPump reads frames and hands each to dispatch, one at a time, so
// events of a connection are handled in arrival order. A frame that is not
// valid JSON ends the connection.
func (c *Conn) readPump(maxFrameBytes int64, dispatch func(*Conn, protocol.Frame)) {
	defer c.Close()

	c.ws.SetReadLimit(maxFrameBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn(context.Background(), "websocket read failed", "error", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		var f protocol.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.log.Warn(context.Background(), "malformed frame, closing", "error", err)
			return
		}
		if f.Event == "" {
			c.log.Warn(context.Background(), "frame without event, closing")
			return
		}
		c.limiter.Take()
		dispatch(c, f)
	}
}

// writePump is the only writer of the websocket.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				c.Close()
				return
			}
			if msg.closeAfter {
				c.Close()
				c.writeClose()
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			c.writeClose()
			return
		}
	}
}

func (c *Conn) writeClose() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
