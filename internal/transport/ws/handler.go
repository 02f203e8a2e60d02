package ws

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// GroupLoader enumerates the message ids a user participates in, for
// the resync performed on every (re)connect.
type GroupLoader interface {
	ListIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
func ServeWS(hub *Hub, groups GroupLoader, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err := validateToken(tokenStr, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Allow any origin (dev mode)
		})
		if err != nil {
			hub.log.Debug("ws: accept error", zap.Error(err))
			return
		}

		client := NewClient(hub, conn, userID)

		// Resync: subscribe this connection to the broadcast group of
		// every message the user is party to. Nothing is carried over
		// from previous connections.
		ids, err := groups.ListIDsForUser(r.Context(), userID)
		if err != nil {
			hub.log.Warn("ws: group resync failed",
				zap.String("user_id", userID.String()), zap.Error(err))
		}
		for _, id := range ids {
			client.JoinGroup(id)
		}

		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}

func validateToken(tokenStr, secret string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(sub)
}
