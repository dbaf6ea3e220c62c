package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"tripweaver/itinerary"
	"tripweaver/share"
	"tripweaver/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 << 10
	editTimeout    = 5 * time.Second
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Handler serves GET /ws/shares/:shareid. The caller's role is resolved before
// the upgrade; collaborators and owners may send edit ops.
func Handler(svc *itinerary.Service, hub *Hub, logger *zap.Logger) httprouter.Handle {
	if logger == nil {
		logger = zap.L()
	}
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		shareID := ps.ByName("shareid")
		userID := utils.GetUserIDFromRequest(r)

		ctx, cancel := context.WithTimeout(r.Context(), editTimeout)
		acc, err := svc.ResolveShare(ctx, shareID, userID)
		cancel()
		if errors.Is(err, share.ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Share not found")
			return
		}
		if err != nil {
			itinerary.RespondError(w, err, "Error opening live session")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		client := &Client{
			Conn:    conn,
			Send:    make(chan []byte, 256),
			Room:    acc.Doc.ID,
			UserID:  userID,
			ShareID: shareID,
			Role:    acc.Role,
		}
		if !hub.Register(client) {
			conn.Close()
			return
		}

		role := acc.Role
		snapshot, _ := json.Marshal(Event{
			Type:        EventSnapshot,
			ItineraryID: acc.Doc.ID,
			Itinerary:   &acc.Doc.Itinerary,
			Role:        &role,
		})
		hub.Send(client, snapshot)

		go writePump(client)
		go readPump(client, hub, svc, logger)
	}
}

func writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func readPump(c *Client, hub *Hub, svc *itinerary.Service, logger *zap.Logger) {
	edited := false
	defer func() {
		hub.Unregister(c)
		c.Conn.Close()
		if !edited {
			return
		}
		// flush what this client left pending; later edits reopen the session
		ctx, cancel := context.WithTimeout(context.Background(), editTimeout)
		defer cancel()
		if _, err := svc.Close(ctx, c.Room, c.UserID, c.ShareID); err != nil {
			logger.Warn("flushing on disconnect", zap.String("itinerary_id", c.Room), zap.Error(err))
		}
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}

		var in inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			reply(hub, c, Event{Type: EventError, ItineraryID: c.Room, Error: "invalid payload"})
			continue
		}

		switch in.Type {
		case "edit":
			ctx, cancel := context.WithTimeout(context.Background(), editTimeout)
			// success is broadcast to the room, sender included, by the notifier
			_, err := svc.Edit(ctx, c.Room, c.UserID, c.ShareID, in.Op)
			cancel()
			if err != nil {
				logger.Debug("live edit rejected", zap.String("itinerary_id", c.Room), zap.Error(err))
				reply(hub, c, Event{Type: EventError, ItineraryID: c.Room, Op: &in.Op, Error: err.Error()})
				continue
			}
			edited = true
		default:
			reply(hub, c, Event{Type: EventError, ItineraryID: c.Room, Error: "unknown message type"})
		}
	}
}

// reply sends ev to c alone.
func reply(hub *Hub, c *Client, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	hub.Send(c, data)
}
