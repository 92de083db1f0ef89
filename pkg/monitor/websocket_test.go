package monitor

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, *EventCollector, *httptest.Server) {
	t.Helper()
	c := NewEventCollector()
	s := NewServer("", c, NewDashboard("run"), opts...)
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		_ = s.Stop(context.Background())
		hs.Close()
	})
	return s, c, hs
}

func dial(t *testing.T, hs *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var m Message
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func TestServer_Health(t *testing.T) {
	_, _, hs := newTestServer(t)

	resp, err := http.Get(hs.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestServer_Stats(t *testing.T) {
	_, c, hs := newTestServer(t)
	c.EmitFinished("run", "a", "A", StatusPassed, "", 0)
	c.EmitFinished("run", "b", "B", StatusFailed, "", 0)

	resp, err := http.Get(hs.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var s CollectorStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
}

func TestServer_Dashboard(t *testing.T) {
	_, c, hs := newTestServer(t)
	c.EmitStarted("run", "a", "A")

	resp, err := http.Get(hs.URL + "/dashboard")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap DashboardSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "running", snap.Tests["a"].Status)
}

func TestServer_StreamsEvents(t *testing.T) {
	_, c, hs := newTestServer(t)
	conn := dial(t, hs)

	first := readMessage(t, conn)
	assert.Equal(t, "dashboard", first.Type)
	require.NotNil(t, first.Dashboard)
	assert.Equal(t, "run", first.Dashboard.RunID)

	c.EmitStarted("run", "a", "A")
	c.EmitFinished("run", "a", "A", StatusPassed, "", time.Millisecond)

	m := readMessage(t, conn)
	require.NotNil(t, m.Event)
	assert.Equal(t, "event", m.Type)
	assert.Equal(t, EventTestStarted, m.Event.Type)

	m = readMessage(t, conn)
	require.NotNil(t, m.Event)
	assert.Equal(t, EventTestFinished, m.Event.Type)
	assert.Equal(t, StatusPassed, m.Event.Status)
}

func TestServer_MultipleClients(t *testing.T) {
	s, c, hs := newTestServer(t)
	a := dial(t, hs)
	b := dial(t, hs)
	readMessage(t, a)
	readMessage(t, b)
	assert.Equal(t, 2, s.Clients())

	c.EmitStarted("run", "x", "X")

	assert.Equal(t, "x", readMessage(t, a).Event.TestID)
	assert.Equal(t, "x", readMessage(t, b).Event.TestID)
}

func TestServer_DropsSlowClient(t *testing.T) {
	s := NewServer("", NewEventCollector(), NewDashboard("run"), WithQueueSize(1))
	slow := &client{send: make(chan []byte, 1)}
	s.addClient(slow)

	s.broadcast([]byte("1"))
	s.broadcast([]byte("2"))

	assert.Equal(t, 0, s.Clients())
	<-slow.send
	_, open := <-slow.send
	assert.False(t, open)

	// Removing an already dropped client is harmless.
	s.removeClient(slow)
}

func TestServer_StopClosesClients(t *testing.T) {
	s, _, hs := newTestServer(t)
	conn := dial(t, hs)
	readMessage(t, conn)

	require.NoError(t, s.Stop(context.Background()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestServer_ServeUntilCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(ln.Addr().String(), NewEventCollector(), NewDashboard("run"))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_StartBadAddress(t *testing.T) {
	s := NewServer("256.0.0.1:bad", NewEventCollector(), NewDashboard("run"))
	assert.Error(t, s.Start(context.Background()))
}
