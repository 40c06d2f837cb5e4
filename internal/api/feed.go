package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/riverdesk/riverdesk-chat/internal/realtime"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// feedBuffer absorbs bursts per client. A client that falls further
	// behind has events dropped — events are reconcile hints, so the
	// client recovers by re-reading the feed, not by replay.
	feedBuffer = 64
)

// FeedHandler streams a channel's live message events over a WebSocket.
type FeedHandler struct {
	coordinator *realtime.Coordinator
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

func NewFeedHandler(coordinator *realtime.Coordinator, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin enforcement belongs to the fronting proxy; the API
			// is bearer-authenticated either way.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Stream handles GET /v1/channels/:id/feed.
func (h *FeedHandler) Stream(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	// Subscribe before upgrading: a subscription failure must surface as
	// a plain HTTP error, not a socket that dies immediately.
	events := make(chan realtime.Event, feedBuffer)
	handle, err := h.coordinator.Subscribe(c.Request.Context(), channelID, func(ev realtime.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	if err != nil {
		respondError(c, h.logger, err, "subscribe feed")
		return
	}
	defer h.coordinator.Unsubscribe(handle)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go readLoop(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readLoop drains the connection so pings and close frames are processed;
// feed clients are not expected to send anything else.
func readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
