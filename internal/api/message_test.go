package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chatwire/pkg/chat"
)

func setupMessageTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&chat.User{}, &chat.Chat{}, &chat.ChatUser{}, &chat.Message{}))

	h := NewMessageHandlers(db)
	router := gin.New()

	// stand-in for RequireAuth: identity comes from a header
	router.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set("user_id", id)
		}
		c.Next()
	})
	router.GET("/api/message/:chatId", h.GetChatMessagesHandler)
	router.POST("/api/message", h.SendMessageHandler)

	return db, router
}

func seedDirectChat(t *testing.T, db *gorm.DB) (alice, bob chat.User, c chat.Chat) {
	t.Helper()
	alice = chat.User{Username: "alice", Password: "hashed"}
	bob = chat.User{Username: "bob", Password: "hashed"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)

	c = chat.Chat{IsGroup: false}
	require.NoError(t, db.Create(&c).Error)
	require.NoError(t, db.Create(&[]chat.ChatUser{
		{ChatID: c.ID, UserID: alice.ID},
		{ChatID: c.ID, UserID: bob.ID},
	}).Error)
	return alice, bob, c
}

func doJSON(router *gin.Engine, method, path, userID string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSendMessageHandler(t *testing.T) {
	db, router := setupMessageTest(t)
	alice, _, c := seedDirectChat(t, db)

	w := doJSON(router, http.MethodPost, "/api/message", alice.ID, SendMessageRequest{
		ChatID:  c.ID,
		Content: "hello",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp MessageInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, c.ID, resp.ChatID)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "alice", resp.Sender.Username)
}

func TestSendMessageHandler_Unauthenticated(t *testing.T) {
	_, router := setupMessageTest(t)

	w := doJSON(router, http.MethodPost, "/api/message", "", SendMessageRequest{
		ChatID:  "whatever",
		Content: "hello",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSendMessageHandler_NotAMember(t *testing.T) {
	db, router := setupMessageTest(t)
	_, _, c := seedDirectChat(t, db)

	outsider := chat.User{Username: "mallory", Password: "hashed"}
	require.NoError(t, db.Create(&outsider).Error)

	w := doJSON(router, http.MethodPost, "/api/message", outsider.ID, SendMessageRequest{
		ChatID:  c.ID,
		Content: "let me in",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSendMessageHandler_MissingFields(t *testing.T) {
	db, router := setupMessageTest(t)
	alice, _, _ := seedDirectChat(t, db)

	w := doJSON(router, http.MethodPost, "/api/message", alice.ID, map[string]string{
		"content": "no chat id",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetChatMessagesHandler(t *testing.T) {
	db, router := setupMessageTest(t)
	alice, bob, c := seedDirectChat(t, db)

	base := time.Now().Add(-time.Hour)
	for i, seed := range []struct {
		sender  string
		content string
	}{
		{alice.ID, "hi bob"},
		{bob.ID, "hi alice"},
	} {
		require.NoError(t, db.Create(&chat.Message{
			ChatID:    c.ID,
			SenderID:  seed.sender,
			Content:   seed.content,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	w := doJSON(router, http.MethodGet, "/api/message/"+c.ID, alice.ID, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp MessagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, int64(2), resp.Total)
	assert.Equal(t, "hi bob", resp.Messages[0].Content)
	assert.Equal(t, "alice", resp.Messages[0].Sender.Username)
	assert.False(t, resp.HasMore)
}

func TestGetChatMessagesHandler_ChatNotFound(t *testing.T) {
	db, router := setupMessageTest(t)
	alice, _, _ := seedDirectChat(t, db)

	w := doJSON(router, http.MethodGet, "/api/message/missing", alice.ID, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetChatMessagesHandler_NotAMember(t *testing.T) {
	db, router := setupMessageTest(t)
	_, _, c := seedDirectChat(t, db)

	outsider := chat.User{Username: "mallory", Password: "hashed"}
	require.NoError(t, db.Create(&outsider).Error)

	w := doJSON(router, http.MethodGet, "/api/message/"+c.ID, outsider.ID, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
