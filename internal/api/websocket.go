// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/Corphon/SceneBoard/internal/utils"
	"github.com/gorilla/websocket"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
	sendQueue    = 64
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient 一个订阅工作区事件的连接
type wsClient struct {
	conn        *websocket.Conn
	workspaceID string
	send        chan []byte
	lastPing    atomic.Int64
	createdAt   time.Time

	mu     sync.Mutex
	closed bool
}

func newWSClient(conn *websocket.Conn, workspaceID string) *wsClient {
	c := &wsClient{
		conn:        conn,
		workspaceID: workspaceID,
		send:        make(chan []byte, sendQueue),
		createdAt:   time.Now(),
	}
	c.touch()
	return c
}

func (c *wsClient) touch() {
	c.lastPing.Store(time.Now().UnixNano())
}

func (c *wsClient) expired(timeout time.Duration) bool {
	return time.Since(time.Unix(0, c.lastPing.Load())) > timeout
}

// enqueue 序列化后写入发送队列
func (c *wsClient) enqueue(message interface{}) bool {
	data, err := json.Marshal(message)
	if err != nil {
		return false
	}
	return c.enqueueBytes(data)
}

// enqueueBytes 非阻塞写入，队列满或已关闭时返回 false
func (c *wsClient) enqueueBytes(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend 关闭发送队列，写协程随之退出
func (c *wsClient) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

type hubMessage struct {
	workspaceID string
	payload     []byte
}

// EventHub 按工作区分组的 WebSocket 连接管理器，同时作为工作区事件的发布者
type EventHub struct {
	connections map[string]map[*wsClient]struct{} // workspaceID -> clients
	mutex       sync.RWMutex

	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan hubMessage

	pingTimeout time.Duration
	logger      *utils.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewEventHub 创建并启动管理器
func NewEventHub() *EventHub {
	h := &EventHub{
		connections: make(map[string]map[*wsClient]struct{}),
		register:    make(chan *wsClient),
		unregister:  make(chan *wsClient),
		broadcast:   make(chan hubMessage, 256),
		pingTimeout: pongWait + writeWait,
		logger:      utils.GetLogger(),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go h.run()
	return h
}

// run 管理器主循环
func (h *EventHub) run() {
	defer close(h.done)
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case message := <-h.broadcast:
			h.deliver(message)
		case <-ticker.C:
			h.cleanupExpiredConnections()
		case <-h.stop:
			h.shutdown()
			return
		}
	}
}

func (h *EventHub) registerClient(client *wsClient) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.connections[client.workspaceID] == nil {
		h.connections[client.workspaceID] = make(map[*wsClient]struct{})
	}
	h.connections[client.workspaceID][client] = struct{}{}

	h.logger.Info("✅ WebSocket 客户端已连接", map[string]interface{}{"workspace_id": client.workspaceID})
}

func (h *EventHub) unregisterClient(client *wsClient) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients, ok := h.connections[client.workspaceID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.connections, client.workspaceID)
	}
	client.closeSend()

	h.logger.Info("🔌 WebSocket 客户端已断开", map[string]interface{}{"workspace_id": client.workspaceID})
}

// deliver 发送给订阅该工作区的所有连接，队列满的连接被关闭
func (h *EventHub) deliver(message hubMessage) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.connections[message.workspaceID] {
		if !client.enqueueBytes(message.payload) {
			h.logger.Warn("⚠️ 客户端消息队列已满，断开连接", map[string]interface{}{"workspace_id": message.workspaceID})
			_ = client.conn.Close()
		}
	}
}

// cleanupExpiredConnections 关闭长时间没有响应的连接，读协程随后注销
func (h *EventHub) cleanupExpiredConnections() {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for _, clients := range h.connections {
		for client := range clients {
			if client.expired(h.pingTimeout) {
				_ = client.conn.Close()
			}
		}
	}
}

func (h *EventHub) shutdown() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, clients := range h.connections {
		for client := range clients {
			client.closeSend()
			_ = client.conn.Close()
		}
	}
	h.connections = make(map[string]map[*wsClient]struct{})
	h.logger.Info("🛑 WebSocket 管理器已关闭", nil)
}

// Close 关闭所有连接并停止主循环
func (h *EventHub) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Publish 实现 services.EventPublisher
func (h *EventHub) Publish(event models.WorkspaceEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("❌ 序列化事件失败", map[string]interface{}{"type": event.Type, "error": err})
		return
	}
	select {
	case h.broadcast <- hubMessage{workspaceID: event.WorkspaceID, payload: payload}:
	case <-h.done:
	default:
		h.logger.Warn("⚠️ 广播队列已满，事件被丢弃", map[string]interface{}{"type": event.Type})
	}
}

// attach 注册连接，管理器已关闭时返回 false
func (h *EventHub) attach(client *wsClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// detach 注销连接
func (h *EventHub) detach(client *wsClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// GetStatus 获取管理器状态
func (h *EventHub) GetStatus() map[string]interface{} {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	workspaces := make(map[string]int, len(h.connections))
	total := 0
	for id, clients := range h.connections {
		workspaces[id] = len(clients)
		total += len(clients)
	}
	return map[string]interface{}{
		"total_workspaces":     len(h.connections),
		"total_connections":    total,
		"workspaces":           workspaces,
		"ping_timeout_seconds": int(h.pingTimeout.Seconds()),
	}
}

// ClientCount 订阅某个工作区的连接数
func (h *EventHub) ClientCount(workspaceID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.connections[workspaceID])
}
