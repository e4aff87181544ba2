// Package websocket broadcasts telemetry frames to websocket clients.
package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/cmt.go/pkg/telemetry"
)

// Hub is a telemetry.Sink sending each frame as a binary message to every
// connected client.
type Hub struct {
	Addr string

	lock    sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn   *websocket.Conn
	frames chan []byte
}

// clientBacklog is the number of frames queued per client before frames
// are dropped for it.
const clientBacklog = 8

// NewHub creates a Hub. Addr is only used by Run.
func NewHub(addr string) *Hub {
	return &Hub{Addr: addr, clients: make(map[*client]struct{})}
}

// Name implements telemetry.Sink.
func (h *Hub) Name() string {
	return "websocket"
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// Publish implements telemetry.Sink.
func (h *Hub) Publish(frame []byte) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	for c := range h.clients {
		select {
		case c.frames <- frame:
		default:
			glog.V(2).Infof("websocket %s: frame dropped", c.conn.Request().RemoteAddr)
		}
	}
	return nil
}

// Handler returns the http.Handler accepting clients.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

// Run serves the hub on Addr until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.Addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/status", h.Handler())
	srv := &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	glog.Infof("websocket telemetry on %s/status", ln.Addr())
	if err := srv.Serve(ln); err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}

func (h *Hub) serve(conn *websocket.Conn) {
	c := &client{conn: conn, frames: make(chan []byte, clientBacklog)}
	h.lock.Lock()
	h.clients[c] = struct{}{}
	h.lock.Unlock()
	defer func() {
		h.lock.Lock()
		delete(h.clients, c)
		h.lock.Unlock()
	}()

	closed := make(chan struct{})
	go func() {
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
		close(closed)
	}()
	for {
		select {
		case <-closed:
			return
		case frame := <-c.frames:
			if err := websocket.Message.Send(conn, frame); err != nil {
				glog.V(2).Infof("websocket %s: %v", conn.Request().RemoteAddr, err)
				return
			}
		}
	}
}

// Receive connects to a hub at url and decodes the frames into ch as
// reports of board until ctx is done or the connection fails.
func Receive(ctx context.Context, url, board string, codec telemetry.Codec, ch chan<- telemetry.Received) error {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()
	for {
		var frame []byte
		if err := websocket.Message.Receive(conn, &frame); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		report, err := codec.Decode(frame)
		ch <- telemetry.Received{Board: board, Report: report, Err: err}
	}
}
