package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/soundwave/internal/log"
	"github.com/ayusman/soundwave/internal/server/api"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	commandTimeout = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Command is a client message on the control socket. set_volume needs
// Volume and set_enabled needs Enabled.
type Command struct {
	Type    string   `json:"type"` // set_volume, set_enabled, toggle_play
	Volume  *float64 `json:"volume,omitempty"`
	Enabled *bool    `json:"enabled,omitempty"`
}

var (
	errMissingVolume  = errors.New("set_volume: volume is required")
	errMissingEnabled = errors.New("set_enabled: enabled is required")
)

type socketError struct {
	Error string `json:"error"`
}

// ControlSocket pushes every tick result to the client and accepts
// control commands over the same connection.
type ControlSocket struct {
	ctl api.Controller
}

// NewControlSocket creates a ControlSocket for ctl.
func NewControlSocket(ctl api.Controller) *ControlSocket {
	return &ControlSocket{ctl: ctl}
}

// ServeHTTP upgrades the request and serves the connection until either
// side closes it.
func (h *ControlSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	results, cancel := h.ctl.Subscribe()
	defer cancel()

	replies := make(chan any, 4)
	readDone := make(chan struct{})
	go h.readLoop(conn, replies, readDone)

	// Initial snapshot so the client renders before the first tick.
	if err := writeMessage(conn, h.ctl.Status()); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-readDone:
			return
		case res, ok := <-results:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			if err := writeMessage(conn, res); err != nil {
				return
			}
		case msg := <-replies:
			if err := writeMessage(conn, msg); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop applies client commands until the connection fails. Only the
// ServeHTTP goroutine writes to conn.
func (h *ControlSocket) readLoop(conn *websocket.Conn, replies chan<- any, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("control socket closed", "error", err)
			}
			return
		}

		if err := h.apply(cmd); err != nil {
			select {
			case replies <- socketError{Error: err.Error()}:
			default:
			}
		}
	}
}

func (h *ControlSocket) apply(cmd Command) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch cmd.Type {
	case "set_volume":
		if cmd.Volume == nil {
			return errMissingVolume
		}
		_, err := h.ctl.SetVolume(ctx, *cmd.Volume)
		return err
	case "set_enabled":
		if cmd.Enabled == nil {
			return errMissingEnabled
		}
		h.ctl.SetEnabled(*cmd.Enabled)
		return nil
	case "toggle_play":
		_, err := h.ctl.TogglePlayPause(ctx)
		return err
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
}

func writeMessage(conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
