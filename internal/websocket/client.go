package websocket

import (
	"time"

	"legal-indexer-be/internal/entity"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn

	// JobId is the job this connection watches.
	JobId string

	// Buffered channel of outbound frames. Closed by the hub.
	Send chan []byte
}

// Serve registers a watcher for jobId and blocks until the connection ends.
// The first frame is the snapshot read after registration, so no update is
// missed between the read and the subscription.
func (h *Hub) Serve(conn *websocket.Conn, jobId string, snapshot func() (*entity.Job, error)) {
	select {
	case <-h.done:
		conn.Close()
		return
	default:
	}

	client := &Client{Hub: h, Conn: conn, JobId: jobId, Send: make(chan []byte, sendBuffer)}
	h.add(client)
	go client.writePump()

	job, err := snapshot()
	if err == nil {
		var frame []byte
		if frame, err = EncodeSnapshot(job); err == nil {
			h.deliverTo(client, frame, job.Status.IsTerminal())
		}
	}
	if err != nil {
		h.logger.Warn(hubModule, "Could not load job snapshot", map[string]interface{}{
			"job_id": jobId,
			"error":  err.Error(),
		})
		h.drop(client)
	}

	client.readPump()
}

// readPump only watches for the peer going away; watchers send nothing.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn(hubModule, "Unexpected websocket close", map[string]interface{}{
					"job_id": c.JobId,
					"error":  err.Error(),
				})
			}
			return
		}
	}
}

// writePump sends each frame as its own text message so clients can decode them one by one.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
