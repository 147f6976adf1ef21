package ws

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// ConversationRooms groups sessions that currently have a conversation open.
type ConversationRooms struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]struct{}
}

func NewConversationRooms() *ConversationRooms {
	return &ConversationRooms{rooms: make(map[uint]map[*Client]struct{})}
}

func (r *ConversationRooms) Join(conversationID uint, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[conversationID] == nil {
		r.rooms[conversationID] = make(map[*Client]struct{})
	}
	r.rooms[conversationID][c] = struct{}{}
}

func (r *ConversationRooms) Leave(conversationID uint, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(conversationID, c)
}

// LeaveAll removes c from every room, on disconnect.
func (r *ConversationRooms) LeaveAll(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.rooms {
		r.leaveLocked(id, c)
	}
}

func (r *ConversationRooms) leaveLocked(conversationID uint, c *Client) {
	if m := r.rooms[conversationID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(r.rooms, conversationID)
		}
	}
}

func (r *ConversationRooms) IsMember(conversationID uint, c *Client) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[conversationID][c]
	return ok
}

func (r *ConversationRooms) ClientCount(conversationID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[conversationID])
}

// Broadcast sends event to every session in the room except from.
func (r *ConversationRooms) Broadcast(conversationID uint, from *Client, event string, data any) int {
	payload, err := Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("ws: encode event")
		return 0
	}
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.rooms[conversationID]))
	for c := range r.rooms[conversationID] {
		if c != from {
			clients = append(clients, c)
		}
	}
	r.mu.RUnlock()

	delivered := 0
	for _, c := range clients {
		if c.trySend(payload) {
			delivered++
		}
	}
	return delivered
}
