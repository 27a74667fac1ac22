package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"legal-indexer-be/internal/dto"
	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	hubModule    = "Hub"
	RedisChannel = "legal_indexer_job_events"
	sendBuffer   = 16
)

// Hub pushes job snapshots to websocket clients watching a job id. With redis
// configured, updates raised on one instance reach watchers connected to another.
type Hub struct {
	clients map[string][]*Client

	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	rdb      *redis.Client
	instance string
	logger   logger.ILogger
}

type jobMessage struct {
	Type string           `json:"type"`
	Data *dto.JobResponse `json:"data"`
}

type clusterEnvelope struct {
	Origin   string          `json:"origin"`
	JobId    string          `json:"job_id"`
	Terminal bool            `json:"terminal"`
	Message  json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rdb:        rdb,
		instance:   uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		}
	}
}

// EncodeSnapshot is the frame sent to watchers for one job state.
func EncodeSnapshot(job *entity.Job) ([]byte, error) {
	return json.Marshal(jobMessage{Type: "job_update", Data: dto.NewJobResponse(job)})
}

// OnJobUpdate delivers the snapshot locally and fans it out through redis.
func (h *Hub) OnJobUpdate(ctx context.Context, job *entity.Job) {
	data, err := EncodeSnapshot(job)
	if err != nil {
		h.logger.Error(hubModule, "Failed to encode job snapshot", map[string]interface{}{
			"job_id": job.Id,
			"error":  err.Error(),
		})
		return
	}

	terminal := job.Status.IsTerminal()
	h.deliver(job.Id, data, terminal)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterEnvelope{
			Origin:   h.instance,
			JobId:    job.Id,
			Terminal: terminal,
			Message:  data,
		})
		if err := h.rdb.Publish(context.WithoutCancel(ctx), RedisChannel, payload).Err(); err != nil {
			h.logger.Warn(hubModule, "Failed to publish job snapshot to redis", map[string]interface{}{
				"job_id": job.Id,
				"error":  err.Error(),
			})
		}
	}
}

// Watchers returns the number of local clients watching jobId.
func (h *Hub) Watchers(jobId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[jobId])
}

// deliver queues data for every watcher of jobId. A terminal snapshot is the
// last frame: the send channels are closed so the write pumps hang up.
func (h *Hub) deliver(jobId string, data []byte, terminal bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range append([]*Client(nil), h.clients[jobId]...) {
		select {
		case client.Send <- data:
			if terminal {
				h.remove(client)
			}
		default:
			h.logger.Warn(hubModule, "Client send buffer full, dropping client", map[string]interface{}{"job_id": jobId})
			h.remove(client)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client.JobId] = append(h.clients[client.JobId], client)
	h.mu.Unlock()
	h.logger.Debug(hubModule, "Client registered", map[string]interface{}{"job_id": client.JobId})
}

// deliverTo queues data for one client if the hub still holds it.
func (h *Hub) deliverTo(client *Client, data []byte, terminal bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.holds(client) {
		return
	}
	select {
	case client.Send <- data:
		if terminal {
			h.remove(client)
		}
	default:
		h.remove(client)
	}
}

func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	h.remove(client)
	h.mu.Unlock()
}

func (h *Hub) holds(client *Client) bool {
	for _, c := range h.clients[client.JobId] {
		if c == client {
			return true
		}
	}
	return false
}

// remove must be called with mu held. It is a no-op for clients already removed.
func (h *Hub) remove(client *Client) {
	clients := h.clients[client.JobId]
	for i, c := range clients {
		if c == client {
			h.clients[client.JobId] = append(clients[:i:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.JobId]) == 0 {
		delete(h.clients, client.JobId)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for _, c := range clients {
			close(c.Send)
		}
	}
	h.clients = make(map[string][]*Client)
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, RedisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env clusterEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn(hubModule, "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if env.Origin == h.instance {
				continue
			}
			h.deliver(env.JobId, env.Message, env.Terminal)
		}
	}
}
