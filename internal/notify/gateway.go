package notify

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	wsDefaultSendQueueSize = 64
	wsDefaultWriteTimeout  = 5 * time.Second
	wsDefaultReadIdle      = 2 * time.Minute
	wsHeartbeatEvery       = 30 * time.Second
	wsHeartbeatTimeout     = 10 * time.Second
	wsMaxPingFailures      = 3
	wsMaxFrameBytes        = 4 << 10
)

// Gateway is the WebSocket entrypoint for the push channel. It upgrades
// the request, registers the connection with the Registry and pumps
// notifications out until either side goes away. Inbound frames are
// read only to keep the connection alive; their content is ignored.
type Gateway struct {
	log      *slog.Logger
	registry *Registry

	writeTimeout    time.Duration
	readIdleTimeout time.Duration
	sendQueueSize   int
	originPatterns  []string
}

// NewGateway constructs a gateway. originPatterns is passed through to
// the websocket accept for cross-origin browser clients; empty means
// same-host only.
func NewGateway(log *slog.Logger, registry *Registry, originPatterns []string) *Gateway {
	return &Gateway{
		log:             log,
		registry:        registry,
		writeTimeout:    wsDefaultWriteTimeout,
		readIdleTimeout: wsDefaultReadIdle,
		sendQueueSize:   wsDefaultSendQueueSize,
		originPatterns:  originPatterns,
	}
}

// HandleChannel upgrades an HTTP request into the push channel for
// userID and runs the session loop until disconnect.
func (g *Gateway) HandleChannel(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: g.originPatterns,
	})
	if err != nil {
		g.log.Info("ws.accept.fail", "user_id", userID, "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	conn.SetReadLimit(wsMaxFrameBytes)

	client := NewClient(userID, g.sendQueueSize)
	g.registry.Connect(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// shutdown is idempotent. Registry removal happens before the
	// connection close so a concurrent Send cannot race a dead conn.
	var closeOnce sync.Once
	shutdown := func(code websocket.StatusCode, reason string) {
		closeOnce.Do(func() {
			g.registry.Disconnect(client)
			_ = conn.Close(code, reason)
			cancel()
		})
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)

		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				// Closed by a reconnect replacing this channel, or by
				// shutdown. Closing the conn unblocks the read loop.
				shutdown(websocket.StatusPolicyViolation, "superseded")
				return
			case n := <-client.Send:
				wctx, wcancel := context.WithTimeout(ctx, g.writeTimeout)
				err := wsjson.Write(wctx, conn, n)
				wcancel()
				if err != nil {
					g.log.Info("ws.write.fail", "user_id", userID, "err", err)
					shutdown(websocket.StatusAbnormalClosure, "write failed")
					return
				}
			}
		}
	}()

	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)

		t := time.NewTicker(wsHeartbeatEvery)
		defer t.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case <-t.C:
				hbCtx, hbCancel := context.WithTimeout(ctx, wsHeartbeatTimeout)
				err := conn.Ping(hbCtx)
				hbCancel()

				if err != nil {
					failures++
					if failures >= wsMaxPingFailures {
						shutdown(websocket.StatusGoingAway, "heartbeat failed")
						return
					}
					continue
				}
				failures = 0
			}
		}
	}()

	// Read loop. The client is not expected to say anything; frames
	// are drained and dropped so pings and close frames get processed.
	for {
		readCtx, readCancel := context.WithTimeout(ctx, g.readIdleTimeout)
		_, _, err := conn.Read(readCtx)
		readCancel()
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				shutdown(websocket.StatusNormalClosure, "peer closed")
			} else {
				shutdown(websocket.StatusAbnormalClosure, "read failed")
			}
			break
		}
	}

	<-writerDone
	<-heartbeatDone
}
