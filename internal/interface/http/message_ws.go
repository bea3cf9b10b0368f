package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	app "github.com/oksasatya/mother-community/internal/application"
	"github.com/oksasatya/mother-community/internal/domain/entity"
	"github.com/oksasatya/mother-community/pkg/response"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsReadLimit  = 16 * 1024
)

// Origins are checked by the CORS middleware before the upgrade.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type clientFrame struct {
	Type    string `json:"type"` // "send" or "read"
	Content string `json:"content,omitempty"`
}

type serverFrame struct {
	Type     string           `json:"type"` // "snapshot", "unread" or "error"
	Messages []entity.Message `json:"messages,omitempty"`
	Unread   *int             `json:"unread,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// snapshotSlot keeps only the newest pending snapshot; older ones are
// superseded before they are written.
type snapshotSlot struct {
	mu     sync.Mutex
	latest []entity.Message
	ready  chan struct{}
}

func newSnapshotSlot() *snapshotSlot {
	return &snapshotSlot{ready: make(chan struct{}, 1)}
}

func (s *snapshotSlot) put(msgs []entity.Message) {
	s.mu.Lock()
	s.latest = msgs
	s.mu.Unlock()
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

func (s *snapshotSlot) take() []entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// ConversationWS streams the conversation with peerID. A full snapshot is
// written on connect and after every change.
func (h *MessageHandler) ConversationWS(c *gin.Context) {
	viewer, peer := viewerID(c), c.Param("peerID")
	if peer == "" || peer == viewer {
		response.Error[any](c, http.StatusBadRequest, "invalid conversation partner", nil)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Debug("websocket upgrade failed")
		}
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conv := app.NewConversation(h.Svc, h.Feed, viewer, peer, h.Logger)
	defer func() { _ = conv.Close() }()

	slot := newSnapshotSlot()
	conv.OnChange(slot.put)

	// subscribe before loading so nothing published in between is lost
	if err := conv.Subscribe(ctx); err != nil {
		writeFrame(conn, serverFrame{Type: "error", Error: "subscribe failed"})
		return
	}
	if err := conv.Load(ctx); err != nil {
		writeFrame(conn, serverFrame{Type: "error", Error: "load conversation failed"})
		return
	}

	errs := make(chan string, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.readConversationFrames(ctx, conn, conv, viewer, errs)
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case <-slot.ready:
			if err := writeFrame(conn, serverFrame{Type: "snapshot", Messages: nonNil(slot.take())}); err != nil {
				return
			}
		case msg := <-errs:
			if err := writeFrame(conn, serverFrame{Type: "error", Error: msg}); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *MessageHandler) readConversationFrames(ctx context.Context, conn *websocket.Conn, conv *app.Conversation, viewer string, errs chan<- string) {
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	report := func(msg string) {
		select {
		case errs <- msg:
		default:
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			report("invalid frame")
			continue
		}
		switch f.Type {
		case "send":
			if _, err := conv.Send(ctx, f.Content); err != nil {
				report(err.Error())
			}
		case "read":
			read, err := h.Svc.MarkRead(ctx, viewer, app.UnreadIDs(conv.Messages(), viewer))
			if err != nil {
				report("mark read failed")
				continue
			}
			for _, m := range read {
				conv.Upsert(m)
			}
		default:
			report("unknown frame type")
		}
	}
}

// UnreadWS pushes the viewer's unread count on connect and whenever it may
// have changed.
func (h *MessageHandler) UnreadWS(c *gin.Context) {
	viewer := viewerID(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the client sends nothing; reading only detects the disconnect
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	badge := app.NewUnreadBadge(h.Svc, h.Feed, viewer, h.Logger)
	err = badge.Watch(ctx, func(n int) {
		if werr := writeFrame(conn, serverFrame{Type: "unread", Unread: &n}); werr != nil {
			cancel()
		}
	})
	if err != nil {
		writeFrame(conn, serverFrame{Type: "error", Error: "unread feed unavailable"})
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("user_id", viewer).Warn("unread watch failed")
		}
	}
}

func writeFrame(conn *websocket.Conn, f serverFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(f)
}
