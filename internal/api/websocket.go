package api

import (
	"net/http"

	"chatwire/internal/audit"
	"chatwire/internal/auth"
	"chatwire/internal/relay"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the deployment domain is fixed
		return true
	},
}

type WebSocketHandler struct {
	hub     *relay.Hub
	handler *relay.EventHandler
	audit   *audit.Service
}

func NewWebSocketHandler(hub *relay.Hub, handler *relay.EventHandler, auditService *audit.Service) *WebSocketHandler {
	return &WebSocketHandler{
		hub:     hub,
		handler: handler,
		audit:   auditService,
	}
}

// HandleWebSocket upgrades the connection and hands it to the relay. The
// bearer token authenticates the upgrade; the relay still expects a setup
// event before accepting joins or sends.
// @Summary WebSocket connection endpoint
// @Description Upgrade HTTP connection to WebSocket for real-time chat
// @Tags websocket
// @Security Bearer
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal Server Error"
// @Router /ws [get]
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := auth.TokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is missing"})
		return
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return
	}

	client := relay.NewClient(h.hub, conn, claims["user_id"].(string), claims["username"].(string))
	h.hub.RegisterClient(client)

	if h.audit != nil {
		h.audit.Log(audit.ActionConnect, client.UserID(), client.ID(), "", "")
	}

	go client.WritePump()
	go func() {
		client.ReadPump(h.handler)
		if h.audit != nil {
			h.audit.Log(audit.ActionDisconnect, client.UserID(), client.ID(), "", "")
		}
	}()
}

type RelayInfoResponse struct {
	TotalConnections int    `json:"total_connections"`
	ActiveRooms      int    `json:"active_rooms"`
	ServerTime       string `json:"server_time"`
}

type RoomStatsResponse struct {
	ChatID         string   `json:"chat_id"`
	TotalUsers     int      `json:"total_users"`
	ConnectedUsers []string `json:"connected_users"`
}

// GetRelayInfo reports live connection counts.
func (h *WebSocketHandler) GetRelayInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"total_connections": h.hub.ClientCount(),
		"active_rooms":      h.hub.RoomCount(),
	})
}

// GetUserPresence reports whether a user has a live relay connection, and
// which rooms that connection has joined.
func (h *WebSocketHandler) GetUserPresence(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	client := h.hub.GetClientByUserID(userID)
	if client == nil {
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "online": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"online":  true,
		"rooms":   client.Rooms(),
	})
}

// GetRoomStats reports who is currently joined to one room.
func (h *WebSocketHandler) GetRoomStats(c *gin.Context) {
	chatID := c.Param("chatId")
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chat ID is required"})
		return
	}

	clients := h.hub.RoomClients(chatID)
	users := make([]string, 0, len(clients))
	for _, client := range clients {
		users = append(users, client.Username())
	}

	c.JSON(http.StatusOK, RoomStatsResponse{
		ChatID:         chatID,
		TotalUsers:     len(clients),
		ConnectedUsers: users,
	})
}
