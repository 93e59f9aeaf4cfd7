package connectivity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"R2FM/core/connectivity"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// statusServer upgrades incoming connections and hands them to the test so
// it can drop them on demand.
func statusServer(t *testing.T) (*httptest.Server, chan *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conns := make(chan *websocket.Conn, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, conns
}

func TestProbeFollowsConnectionLifecycle(t *testing.T) {
	t.Parallel()
	srv, conns := statusServer(t)

	oracle := connectivity.NewOracle(false)
	probe := connectivity.NewProbe(wsURL(srv), oracle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go probe.Run(ctx)

	require.Eventually(t, oracle.IsOnline, 5*time.Second, 10*time.Millisecond,
		"an established status socket means online")

	conn := <-conns
	conn.Close()

	require.Eventually(t, func() bool { return !oracle.IsOnline() }, 5*time.Second, 10*time.Millisecond,
		"a dropped status socket means offline")
}

func TestProbeStaysOfflineWhenUnreachable(t *testing.T) {
	t.Parallel()
	srv, _ := statusServer(t)
	url := wsURL(srv)
	srv.Close()

	oracle := connectivity.NewOracle(false)
	probe := connectivity.NewProbe(url, oracle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go probe.Run(ctx)

	assert.Never(t, oracle.IsOnline, 300*time.Millisecond, 25*time.Millisecond)
}
