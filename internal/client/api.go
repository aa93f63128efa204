package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatwire/pkg/chat"
)

// APIClient talks to the HTTP CRUD side: auth, chat listing, message history
// and persistence. The relay only handles live delivery; this client is how
// the backfill and the source-of-truth store are reached.
type APIClient struct {
	base  string
	token string
	http  *http.Client
}

func NewAPIClient(base string) *APIClient {
	return &APIClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *APIClient) SetToken(token string) {
	a.token = token
}

func (a *APIClient) Token() string {
	return a.token
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

type ChatSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsGroup bool   `json:"is_group"`
	Members []struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"members"`
}

// Login authenticates and stores the bearer credential for every later call.
func (a *APIClient) Login(ctx context.Context, username, password string) (Identity, error) {
	return a.authenticate(ctx, "/login", username, password)
}

// Register creates the account and stores the bearer credential.
func (a *APIClient) Register(ctx context.Context, username, password string) (Identity, error) {
	return a.authenticate(ctx, "/register", username, password)
}

func (a *APIClient) authenticate(ctx context.Context, path, username, password string) (Identity, error) {
	body := map[string]string{"username": username, "password": password}

	var resp authResponse
	if err := a.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return Identity{}, err
	}

	a.token = resp.Token
	return Identity{
		UserID:   resp.User.ID,
		Username: resp.User.Username,
		Token:    resp.Token,
	}, nil
}

// ListChats fetches the caller's chats, most recently active first.
func (a *APIClient) ListChats(ctx context.Context) ([]ChatSummary, error) {
	var resp struct {
		Chats []ChatSummary `json:"chats"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/chat", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// AccessChat opens or creates the direct chat with another user.
func (a *APIClient) AccessChat(ctx context.Context, userID string) (*ChatSummary, error) {
	var resp struct {
		Chat ChatSummary `json:"chat"`
	}
	body := map[string]string{"userId": userID}
	if err := a.do(ctx, http.MethodPost, "/api/chat", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Chat, nil
}

// SearchUsers finds users to start chats with.
func (a *APIClient) SearchUsers(ctx context.Context, query string) ([]UserSummary, error) {
	var resp struct {
		Users []UserSummary `json:"users"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/user?search="+query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type messageInfo struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	ChatID    string    `json:"chatId"`
	SenderID  string    `json:"senderId"`
	CreatedAt time.Time `json:"createdAt"`
	Sender    struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"sender"`
}

func (m messageInfo) wire() chat.WireMessage {
	return chat.WireMessage{
		ID:         m.ID,
		ChatID:     m.ChatID,
		SenderID:   m.SenderID,
		SenderName: m.Sender.Username,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}

// FetchMessages loads message history for a chat from the message store.
func (a *APIClient) FetchMessages(ctx context.Context, chatID string) ([]chat.WireMessage, error) {
	var resp struct {
		Messages []messageInfo `json:"messages"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/message/"+chatID, nil, &resp); err != nil {
		return nil, err
	}

	msgs := make([]chat.WireMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msgs = append(msgs, m.wire())
	}
	return msgs, nil
}

// SendMessage persists a message and returns its stored wire form.
func (a *APIClient) SendMessage(ctx context.Context, chatID, content string) (*chat.WireMessage, error) {
	body := map[string]string{"chatId": chatID, "content": content}

	var resp messageInfo
	if err := a.do(ctx, http.MethodPost, "/api/message", body, &resp); err != nil {
		return nil, err
	}

	msg := resp.wire()
	return &msg, nil
}

func (a *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
