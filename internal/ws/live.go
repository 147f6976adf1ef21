package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"infinity/config"
	"infinity/internal/auth"
	"infinity/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	membershipWait = 3 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MembershipChecker reports whether a user takes part in a conversation.
type MembershipChecker interface {
	IsParticipant(ctx context.Context, userID, conversationID uint) (bool, error)
}

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type conversationPayload struct {
	ConversationID uint `json:"conversationId"`
}

type typingPayload struct {
	ConversationID uint   `json:"conversationId"`
	UserID         uint   `json:"userId"`
	Username       string `json:"username"`
}

// ServeLive authenticates before upgrading: a missing or invalid token gets 401 and no socket.
// The token comes from ?token= or an Authorization bearer header.
func ServeLive(cfg *config.JWTConfig, hub *Hub, rooms *ConversationRooms, members MembershipChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token, _ = auth.BearerToken(c.GetHeader("Authorization"))
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Uint("user_id", claims.UserID).Msg("ws: upgrade failed")
			return
		}

		client := NewClient(claims.UserID, claims.Username)
		hub.Register(client)
		log.Debug().Uint("user_id", client.UserID).Int("sessions", hub.SessionCount(client.UserID)).Msg("ws: connected")

		done := make(chan struct{})
		go func() {
			writePump(client, conn)
			close(done)
		}()

		s := &session{client: client, rooms: rooms, members: members}
		s.readPump(conn)

		rooms.LeaveAll(client)
		client.Close()
		<-done
		conn.Close()
		log.Debug().Uint("user_id", client.UserID).Msg("ws: disconnected")
	}
}

// writePump copies messages from client.Send to the connection and keeps it alive with pings.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}

type session struct {
	client  *Client
	rooms   *ConversationRooms
	members MembershipChecker
}

func (s *session) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Uint("user_id", s.client.UserID).Msg("ws: read")
			}
			return
		}
		s.handle(raw)
	}
}

func (s *session) handle(raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.fail("malformed event")
		return
	}
	var p conversationPayload
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			s.fail("malformed event data")
			return
		}
	}

	switch msg.Type {
	case domain.EventJoinConversation:
		if p.ConversationID == 0 {
			s.fail("conversationId required")
			return
		}
		ok, err := s.isParticipant(p.ConversationID)
		if err != nil {
			s.fail("could not join conversation")
			return
		}
		if !ok {
			s.fail("conversation not found")
			return
		}
		s.rooms.Join(p.ConversationID, s.client)
	case domain.EventLeaveConversation:
		s.rooms.Leave(p.ConversationID, s.client)
	case domain.EventTyping, domain.EventStopTyping:
		if !s.rooms.IsMember(p.ConversationID, s.client) {
			s.fail("join the conversation first")
			return
		}
		event := domain.EventUserTyping
		if msg.Type == domain.EventStopTyping {
			event = domain.EventUserStopTyping
		}
		s.rooms.Broadcast(p.ConversationID, s.client, event, typingPayload{
			ConversationID: p.ConversationID,
			UserID:         s.client.UserID,
			Username:       s.client.Username,
		})
	default:
		s.fail("unknown event")
	}
}

func (s *session) isParticipant(conversationID uint) (bool, error) {
	if s.members == nil {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), membershipWait)
	defer cancel()
	ok, err := s.members.IsParticipant(ctx, s.client.UserID, conversationID)
	if err != nil {
		log.Warn().Err(err).Uint("user_id", s.client.UserID).Uint("conversation_id", conversationID).Msg("ws: membership check")
	}
	return ok, err
}

func (s *session) fail(message string) {
	payload, err := Encode(domain.EventError, gin.H{"message": message})
	if err != nil {
		return
	}
	s.client.trySend(payload)
}
