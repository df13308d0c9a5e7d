// internal/api/websocket_handlers.go
package api

import (
	"encoding/json"
	"time"

	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/Corphon/SceneBoard/internal/workspace"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const maxClientMessage = 64 << 10

// 客户端消息类型
const (
	msgTransferBegin  = "transfer_begin"
	msgTransferDrop   = "transfer_drop"
	msgTransferCancel = "transfer_cancel"
	msgPing           = "ping"
)

// clientMessage 客户端发来的消息，字段按类型取用
type clientMessage struct {
	Type        string              `json:"type"`
	ArtifactID  string              `json:"artifact_id,omitempty"`
	Source      models.ContainerRef `json:"source"`
	Destination models.ContainerRef `json:"destination"`
	TargetID    string              `json:"target_id,omitempty"`
}

// WorkspaceWebSocket 订阅工作区事件，同时接收拖拽消息
func (h *Handler) WorkspaceWebSocket(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("❌ WebSocket 升级失败", map[string]interface{}{"workspace_id": ws.ID(), "error": err})
		return
	}
	defer conn.Close()

	client := newWSClient(conn, ws.ID())
	if !h.Hub.attach(client) {
		return
	}
	defer h.Hub.detach(client)

	go h.writePump(client)

	client.enqueue(map[string]interface{}{
		"type":         "connected",
		"workspace_id": ws.ID(),
		"timestamp":    time.Now().Format(time.RFC3339),
	})

	h.readPump(client, ws)
}

// readPump 读取客户端消息直到连接关闭
func (h *Handler) readPump(client *wsClient, ws *workspace.Workspace) {
	conn := client.conn
	conn.SetReadLimit(maxClientMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		client.touch()
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("⚠️ WebSocket 读取错误", map[string]interface{}{"workspace_id": ws.ID(), "error": err})
			}
			return
		}
		client.touch()
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var message clientMessage
		if err := json.Unmarshal(data, &message); err != nil {
			// 解析失败的放置消息按无效拖拽处理，不算错误
			var head struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(data, &head) == nil && head.Type == msgTransferDrop {
				h.sendDropResult(client, models.DropResult{Reason: models.DropMalformed})
				continue
			}
			h.sendError(client, "无效的消息格式")
			continue
		}
		h.handleMessage(client, ws, message)
	}
}

// writePump 把发送队列写到连接，队列关闭后退出
func (h *Handler) writePump(client *wsClient) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理拖拽消息。状态变化通过工作区事件推送给所有订阅者，
// 这里只回复发起者。
func (h *Handler) handleMessage(client *wsClient, ws *workspace.Workspace, message clientMessage) {
	switch message.Type {
	case msgTransferBegin:
		desc := models.TransferDescriptor{ArtifactID: message.ArtifactID, Source: message.Source}
		if err := ws.BeginTransfer(desc); err != nil {
			h.sendError(client, err.Error())
		}
	case msgTransferDrop:
		// 消息自带描述时不依赖之前的 transfer_begin
		if message.ArtifactID != "" || message.Source.Kind != "" {
			desc := models.TransferDescriptor{ArtifactID: message.ArtifactID, Source: message.Source}
			h.sendDropResult(client, ws.Move(desc, message.Destination, message.TargetID))
			return
		}
		h.sendDropResult(client, ws.Drop(message.Destination, message.TargetID))
	case msgTransferCancel:
		ws.CancelTransfer()
	case msgPing:
		client.enqueue(map[string]interface{}{
			"type":      "pong",
			"timestamp": time.Now().Unix(),
		})
	default:
		h.sendError(client, "未知的消息类型: "+message.Type)
	}
}

func (h *Handler) sendDropResult(client *wsClient, result models.DropResult) {
	client.enqueue(map[string]interface{}{
		"type":   "transfer_result",
		"result": result,
	})
}

// sendError 发送错误消息
func (h *Handler) sendError(client *wsClient, errorMsg string) {
	client.enqueue(map[string]interface{}{
		"type":      "error",
		"error":     errorMsg,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
