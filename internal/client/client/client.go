package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/protocol"
	"github.com/gorilla/websocket"
)

// Client is the transport contract the CLI depends on.
type Client interface {
	Request(ctx context.Context, event string, req, resp any) error
	Pushes() <-chan protocol.Frame
	Done() <-chan struct{}
	Close() error
}

const (
	pushBuffer = 64
	writeWait  = 10 * time.Second
)

// WSClient speaks the event protocol over one websocket. Requests may be
// issued concurrently; acknowledgements are matched by frame id.
type WSClient struct {
	conn   *websocket.Conn
	nextID atomic.Uint64

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[uint64]chan protocol.Frame

	pushes    chan protocol.Frame
	done      chan struct{}
	closeOnce sync.Once
}

var _ Client = (*WSClient)(nil)

// Dial connects to serverURL. With a token the connection is bound to that
// user; without one, event must name a bootstrap event (login, register...)
// and the connection serves only those.
func Dial(ctx context.Context, serverURL, token, event string) (*WSClient, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	q := u.Query()
	if token != "" {
		q.Set(common.AccessTokenQueryName, token)
	}
	if event != "" {
		q.Set(common.HandshakeEventQueryName, event)
	}
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c := &WSClient{
		conn:    conn,
		pending: make(map[uint64]chan protocol.Frame),
		pushes:  make(chan protocol.Frame, pushBuffer),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Pushes delivers server events. Events that arrive while the buffer is
// full are dropped.
func (c *WSClient) Pushes() <-chan protocol.Frame {
	return c.pushes
}

// Done is closed once the connection is gone.
func (c *WSClient) Done() <-chan struct{} {
	return c.done
}

func (c *WSClient) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.writeMu.Unlock()
	c.shutdown()
	return c.conn.Close()
}

func (c *WSClient) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Request sends event with req as data and waits for the acknowledgement.
// A successful ack is decoded into resp when resp is not nil; an error ack
// is returned as *ServerError.
func (c *WSClient) Request(ctx context.Context, event string, req, resp any) error {
	var data json.RawMessage
	if req != nil {
		b, err := json.Marshal(req)
		if err != nil {
			return err
		}
		data = b
	}

	id := c.nextID.Add(1)
	ch := make(chan protocol.Frame, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteJSON(protocol.Frame{ID: id, Event: event, Data: data})
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}

	select {
	case f := <-ch:
		return decodeAck(f.Data, resp)
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func decodeAck(data json.RawMessage, resp any) error {
	var ack protocol.Ack
	if err := json.Unmarshal(data, &ack); err != nil {
		return fmt.Errorf("malformed ack: %w", err)
	}
	if ack.Error != "" {
		return &ServerError{Message: ack.Error}
	}
	if !ack.Success {
		return errors.New("malformed ack: neither success nor error")
	}
	if resp == nil {
		return nil
	}
	return json.Unmarshal(data, resp)
}

func (c *WSClient) readLoop() {
	defer c.shutdown()
	for {
		var f protocol.Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			return
		}
		if f.IsAck() {
			c.pendingMu.Lock()
			ch, ok := c.pending[f.Ack]
			c.pendingMu.Unlock()
			if ok {
				ch <- f
			}
			continue
		}
		select {
		case c.pushes <- f:
		default:
		}
	}
}
