package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
)

// frame is one queued outbound WebSocket message
type frame struct {
	data   []byte
	binary bool
}

// Client represents a WebSocket connection. Its id doubles as the player id.
type Client struct {
	id         string
	hub        *Hub
	conn       *websocket.Conn
	send       chan frame
	remoteAddr string
	joined     bool
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client with a fresh id
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		id:         GenerateID(),
		hub:        hub,
		conn:       conn,
		send:       make(chan frame, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugw("ws read error", "id", c.id, "err", err)
			}
			break
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.hub.game.Metrics().IncRateLimited()
			Log.Warnw("rate limit exceeded, disconnecting", "id", c.id, "addr", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind := websocket.TextMessage
			if f.binary {
				kind = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(kind, f.data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send encodes msg for the wire. Heartbeat state goes out as msgpack, the
// rest as JSON envelopes.
func (c *Client) Send(msg Envelope) {
	if msg.T == MsgState {
		data, err := msgpack.Marshal(msg.Data)
		if err != nil {
			Log.Errorw("msgpack marshal", "err", err)
			return
		}
		c.enqueue(frame{data: data, binary: true})
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		Log.Errorw("marshal", "type", msg.T, "err", err)
		return
	}
	c.enqueue(frame{data: data})
}

// enqueue must be called with the hub read lock held so send is not closed underneath it
func (c *Client) enqueue(f frame) {
	select {
	case c.send <- f:
	default:
		// Client too slow, drop message
	}
}

// handleMessage validates an inbound envelope and forwards it to the game
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.malformed(fmt.Errorf("%w: %v", ErrMalformed, err))
		return
	}

	game := c.hub.game
	switch env.T {
	case MsgJoin:
		if c.joined {
			return
		}
		var msg JoinMsg
		if len(env.D) > 0 {
			var err error
			if msg, err = DecodePayload[JoinMsg](env.D); err != nil {
				c.malformed(err)
				return
			}
		}
		// a full session leaves the connection free to retry later
		c.joined = game.Join(c.id, msg.CleanName())

	case MsgMove:
		msg, err := DecodePayload[MoveMsg](env.D)
		if err != nil {
			c.malformed(err)
			return
		}
		if c.joined {
			game.Move(c.id, msg)
		}

	case MsgRotate:
		msg, err := DecodePayload[RotateMsg](env.D)
		if err != nil {
			c.malformed(err)
			return
		}
		if c.joined {
			game.Rotate(c.id, *msg.Angle)
		}

	case MsgAttemptKill:
		msg, err := DecodePayload[AttemptKillMsg](env.D)
		if err != nil {
			c.malformed(err)
			return
		}
		if c.joined {
			game.AttemptKill(c.id, msg.TargetID)
		}

	default:
		c.malformed(fmt.Errorf("%w: unknown type %q", ErrMalformed, env.T))
	}
}

func (c *Client) malformed(err error) {
	c.hub.game.Metrics().IncMalformed()
	Log.Debugw("dropped message", "id", c.id, "err", err)
}
