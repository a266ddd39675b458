// cmd/push-gateway/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"haggle/internal/pkg/bootstrap"
	"haggle/internal/pkg/logger"
	"haggle/internal/pkg/mq"
	"haggle/internal/service/negotiation/domain"
)

const (
	serviceName   = "push-gateway"
	consumerGroup = "push-gateway"
	writeWait     = 10 * time.Second
	pingPeriod    = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub tracks connected clients by user ID and fans notification payloads out
// to them. A user who is not connected simply misses the push; this channel
// is best effort end to end.
type Hub struct {
	lock    sync.RWMutex
	clients map[string]*Client
}

func newHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) register(c *Client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if old, ok := h.clients[c.userID]; ok {
		close(old.send)
	}
	h.clients[c.userID] = c
}

func (h *Hub) unregister(c *Client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if cur, ok := h.clients[c.userID]; ok && cur == c {
		delete(h.clients, c.userID)
		close(c.send)
	}
}

// Send queues a payload for the user if connected. Drops on a full buffer
// rather than blocking the consumer loop.
func (h *Hub) Send(userID string, payload []byte) {
	h.lock.RLock()
	client, ok := h.clients[userID]
	h.lock.RUnlock()
	if !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
		logger.Logger.Warn().Str("user", userID).Msg("client send buffer full, dropping push")
	}
}

// Client is one websocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

// readPump exists to notice disconnects; clients only send pongs and close
// frames.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 64), userID: userID}
	hub.register(client)
	logger.Logger.Info().Str("user", userID).Msg("client connected")

	go client.writePump()
	go client.readPump()
}

// consume reads notification events from kafka and routes each to its
// recipient's connection.
func consume(ctx context.Context, hub *Hub) error {
	cfg := bootstrap.GetCurrentConfig()
	reader := mq.NewReader(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.NotificationTopic, consumerGroup)
	defer reader.Close()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Logger.Error().Err(err).Msg("could not fetch message, retrying")
			time.Sleep(time.Second)
			continue
		}

		msgCtx := mq.ExtractContext(ctx, msg)
		var event domain.NotificationEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Ctx(msgCtx).Error().Err(err).Msg("malformed notification event, skipping")
		} else {
			hub.Send(event.RecipientID.String(), msg.Value)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(msgCtx).Error().Err(err).Msg("failed to commit offset")
		}
	}
}

func main() {
	if err := bootstrap.Init(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	hub := newHub()
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return consume(gctx, hub) })

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8090,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) { serveWs(hub, w, r) })
		},
		OnShutdown: []func(ctx context.Context){
			func(context.Context) {
				cancel()
				if err := g.Wait(); err != nil {
					logger.Logger.Error().Err(err).Msg("consumer exited with error")
				}
			},
		},
	})
}
