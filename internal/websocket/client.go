package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one browser tab listening on a topic. Admin topics carry every
// member, task and day-refresh change of that admin's household, so signed-in
// pages re-fetch their partials. Share topics carry only the changes of the
// one member behind a public link.
type Client struct {
	hub   *Hub
	conn  *ws.Conn
	topic string
	send  chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn, topic string) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		topic: topic,
		send:  make(chan []byte, sendBufferSize),
	}
}

// Run streams the topic's change notices to the browser until either side
// goes away. Pages never send anything, so inbound frames are discarded.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx = c.conn.CloseRead(ctx)
	if err := c.stream(ctx); err != nil {
		c.conn.Close(ws.StatusGoingAway, "")
		return
	}
	c.conn.Close(ws.StatusNormalClosure, "")
}

// stream forwards queued notices and keeps idle connections alive with pings.
// It returns nil once the hub closes the queue or the peer disconnects.
func (c *Client) stream(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return nil
			}
			if err := c.write(ctx, msg); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}
