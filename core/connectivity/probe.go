package connectivity

import (
	"context"
	"time"

	"R2FM/logger"

	"github.com/gorilla/websocket"
)

// redialDelay paces reconnect attempts after the status socket drops.
const redialDelay = 5 * time.Second

// Probe adapts the server's status websocket into reachability transitions:
// an established connection means online, a read failure means offline. The
// socket stays silent apart from keepalive control frames, so transitions
// are driven by connection events rather than request polling.
type Probe struct {
	url    string
	oracle *Oracle
	dialer *websocket.Dialer
}

// NewProbe creates a probe against the given ws:// status endpoint.
func NewProbe(url string, oracle *Oracle) *Probe {
	return &Probe{
		url:    url,
		oracle: oracle,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Run feeds the Oracle until ctx is cancelled. Call it in its own goroutine.
func (p *Probe) Run(ctx context.Context) {
	for {
		conn, _, err := p.dialer.DialContext(ctx, p.url, nil)
		if err != nil {
			p.oracle.Set(false)
			select {
			case <-ctx.Done():
				return
			case <-time.After(redialDelay):
				continue
			}
		}

		p.oracle.Set(true)
		p.hold(ctx, conn)
		p.oracle.Set(false)

		select {
		case <-ctx.Done():
			return
		case <-time.After(redialDelay):
		}
	}
}

// hold blocks until the connection dies or ctx is cancelled. Reading is
// required for the websocket library to process the server's ping frames.
func (p *Probe) hold(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug("Status socket closed", logger.ErrorField(err))
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
	case <-readDone:
	}
}
