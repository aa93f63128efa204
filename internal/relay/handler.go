package relay

import (
	"log"

	"chatwire/internal/audit"
	"chatwire/pkg/chat"
)

// EventHandler dispatches inbound frames from one connection. Frames from a
// single connection are handled serially by its read pump, so per-event state
// transitions here need no extra locking beyond what the hub provides.
type EventHandler struct {
	hub   *Hub
	audit *audit.Service
}

// NewEventHandler builds a handler. auditService may be nil to disable the
// event trail.
func NewEventHandler(hub *Hub, auditService *audit.Service) *EventHandler {
	return &EventHandler{
		hub:   hub,
		audit: auditService,
	}
}

func (h *EventHandler) HandleFrame(client *Client, frame []byte) {
	ev, err := chat.DecodeEvent(frame)
	if err != nil {
		h.sendError(client, chat.ErrCodeBadPayload, "malformed frame")
		return
	}

	switch ev.Event {
	case chat.EventSetup:
		h.handleSetup(client, ev)
	case chat.EventJoinChat:
		h.handleJoin(client, ev)
	case chat.EventLeaveChat:
		h.handleLeave(client, ev)
	case chat.EventTyping:
		h.handleTyping(client, ev, chat.EventTyping)
	case chat.EventStopTyping:
		h.handleTyping(client, ev, chat.EventStopTyping)
	case chat.EventNewMessage:
		h.handleNewMessage(client, ev)
	default:
		h.sendError(client, chat.ErrCodeUnknownEvent, "unknown event: "+ev.Event)
	}
}

// handleSetup binds the connection to its user and acks with connected.
// Identity comes from the authenticated upgrade; the payload may restate it
// but cannot claim someone else's.
func (h *EventHandler) handleSetup(client *Client, ev chat.Event) {
	var payload chat.SetupPayload
	if err := ev.Bind(&payload); err != nil {
		h.sendError(client, chat.ErrCodeBadPayload, "invalid setup payload")
		return
	}

	if payload.UserID != "" && payload.UserID != client.UserID() {
		h.sendError(client, chat.ErrCodeBadPayload, "setup identity does not match connection")
		return
	}

	client.markReady()
	h.log(audit.ActionSetup, client, "", "")

	ack, _ := chat.NewEvent(chat.EventConnected, nil)
	if err := client.SendEvent(ack); err != nil {
		log.Printf("relay: failed to ack setup for %s: %v", client.ID(), err)
	}
}

func (h *EventHandler) handleJoin(client *Client, ev chat.Event) {
	if !h.requireSetup(client) {
		return
	}

	var payload chat.RoomPayload
	if err := ev.Bind(&payload); err != nil || payload.ChatID == "" {
		h.sendError(client, chat.ErrCodeBadPayload, "invalid join payload")
		return
	}

	h.hub.JoinRoom(client, payload.ChatID)
	h.log(audit.ActionJoinRoom, client, payload.ChatID, "")
}

func (h *EventHandler) handleLeave(client *Client, ev chat.Event) {
	if !h.requireSetup(client) {
		return
	}

	var payload chat.RoomPayload
	if err := ev.Bind(&payload); err != nil || payload.ChatID == "" {
		h.sendError(client, chat.ErrCodeBadPayload, "invalid leave payload")
		return
	}

	h.hub.LeaveRoom(client, payload.ChatID)
	h.log(audit.ActionLeaveRoom, client, payload.ChatID, "")
}

// handleTyping relays a typing signal to the sender's peers in the room,
// stamped with the sender's identity so receivers can track typists as a set.
func (h *EventHandler) handleTyping(client *Client, ev chat.Event, name string) {
	if !h.requireSetup(client) {
		return
	}

	var payload chat.TypingPayload
	if err := ev.Bind(&payload); err != nil || payload.ChatID == "" {
		h.sendError(client, chat.ErrCodeBadPayload, "invalid typing payload")
		return
	}

	if !client.InRoom(payload.ChatID) {
		h.reject(client, payload.ChatID, name)
		return
	}

	payload.UserID = client.UserID()
	payload.Username = client.Username()

	out, err := chat.NewEvent(name, payload)
	if err != nil {
		return
	}
	frame, err := out.Encode()
	if err != nil {
		return
	}
	h.hub.Broadcast(payload.ChatID, frame, client)
}

// handleNewMessage validates room membership and fans the message out
// unchanged to every other member. The sender renders its own copy from its
// local optimistic append, so it is excluded here.
func (h *EventHandler) handleNewMessage(client *Client, ev chat.Event) {
	if !h.requireSetup(client) {
		return
	}

	var msg chat.WireMessage
	if err := ev.Bind(&msg); err != nil || msg.ChatID == "" {
		h.sendError(client, chat.ErrCodeBadPayload, "invalid message payload")
		return
	}

	if !client.InRoom(msg.ChatID) {
		h.reject(client, msg.ChatID, chat.EventNewMessage)
		return
	}

	out := chat.Event{Event: chat.EventMessageReceived, Data: ev.Data}
	frame, err := out.Encode()
	if err != nil {
		return
	}
	h.hub.Broadcast(msg.ChatID, frame, client)
}

// reject reports a send outside the joined-rooms set. A protocol violation,
// never a silent drop.
func (h *EventHandler) reject(client *Client, chatID, event string) {
	h.log(audit.ActionViolation, client, chatID, event)
	ev, err := chat.NewEvent(chat.EventError, chat.ErrorPayload{
		Code:    chat.ErrCodeMembershipViolation,
		Message: "not joined to chat " + chatID,
		ChatID:  chatID,
	})
	if err != nil {
		return
	}
	if err := client.SendEvent(ev); err != nil {
		log.Printf("relay: failed to send rejection to %s: %v", client.ID(), err)
	}
}

func (h *EventHandler) requireSetup(client *Client) bool {
	if client.isReady() {
		return true
	}
	h.sendError(client, chat.ErrCodeNotSetup, "setup required before this event")
	return false
}

func (h *EventHandler) sendError(client *Client, code, message string) {
	ev, err := chat.NewEvent(chat.EventError, chat.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	if err := client.SendEvent(ev); err != nil {
		log.Printf("relay: failed to send error to %s: %v", client.ID(), err)
	}
}

func (h *EventHandler) log(action string, client *Client, chatID, detail string) {
	if h.audit == nil {
		return
	}
	if err := h.audit.Log(action, client.UserID(), client.ID(), chatID, detail); err != nil {
		log.Printf("relay: audit log failed: %v", err)
	}
}
