package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"soul-hq/gateway/pkg/datasync"
	"soul-hq/gateway/pkg/dto"
)

type fakeAdmin struct {
	t        *testing.T
	node     chan string
	requests chan string
	// frames are written after a snapshot request is received.
	frames []string
}

func (a *fakeAdmin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.Accept(w, r, nil)
	if err != nil {
		a.t.Errorf("accept: %v", err)
		return
	}
	defer conn.Close(ws.StatusNormalClosure, "")
	a.node <- r.Header.Get(NodeHeader)

	ctx := r.Context()
	_, msg, err := conn.Read(ctx)
	if err != nil {
		return
	}
	a.requests <- string(msg)

	for _, f := range a.frames {
		if err := conn.Write(ctx, ws.MessageText, []byte(f)); err != nil {
			return
		}
	}
	// Keep the connection open until the client leaves.
	conn.Read(ctx)
}

func refreshFrame(group string) string {
	return `{"groupType":"` + group + `","eventType":"MYSELF","data":[]}`
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newAdmin(t *testing.T, frames ...string) (*fakeAdmin, *httptest.Server) {
	a := &fakeAdmin{t: t, node: make(chan string, 1), requests: make(chan string, 1), frames: frames}
	srv := httptest.NewServer(a)
	t.Cleanup(srv.Close)
	return a, srv
}

func testTransport(t *testing.T, urls ...string) *Transport {
	cfg := DefaultConfig(urls...)
	cfg.NodeID = "node-1"
	cfg.SnapshotTimeout = 2 * time.Second
	cfg.ControlRate = 100
	tr, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestTransport_SnapshotBuffersIncrements(t *testing.T) {
	admin, srv := newAdmin(t,
		refreshFrame("PLUGIN"),
		`{"groupType":"RULE","eventType":"CREATE","data":[{"id":"r9","selectorId":"s1"}]}`,
		refreshFrame("SELECTOR"),
		refreshFrame("RULE"),
		`garbage`,
		refreshFrame("APP_AUTH"),
		refreshFrame("META_DATA"),
		`{"groupType":"PLUGIN","eventType":"DELETE","data":[{"name":"waf"}]}`,
		`not json either`,
	)

	tr := testTransport(t, wsURL(srv))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := tr.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer stream.Close()

	if got := <-admin.node; got != "node-1" {
		t.Errorf("node header = %q, want node-1", got)
	}

	events, err := stream.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if got := <-admin.requests; got != snapshotRequest {
		t.Errorf("snapshot request = %q, want %q", got, snapshotRequest)
	}
	if len(events) != len(dto.AllGroups) {
		t.Fatalf("snapshot events = %d, want %d", len(events), len(dto.AllGroups))
	}

	ev, err := stream.Next(ctx)
	if err != nil || ev.Kind != dto.GroupRule || ev.Op != dto.EventCreate {
		t.Fatalf("first Next() = %+v, %v, want buffered RULE CREATE", ev, err)
	}
	ev, err = stream.Next(ctx)
	if err != nil || ev.Kind != dto.GroupPlugin || ev.Op != dto.EventDelete {
		t.Fatalf("second Next() = %+v, %v, want PLUGIN DELETE", ev, err)
	}
	_, err = stream.Next(ctx)
	var decErr *datasync.DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("third Next() error = %v, want *DecodeError", err)
	}
}

func TestTransport_FailsOverToNextURL(t *testing.T) {
	_, srv := newAdmin(t)
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	tr := testTransport(t, wsURL(dead), wsURL(srv))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := tr.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	stream.Close()

	if tr.next != 1 {
		t.Errorf("next endpoint = %d, want 1", tr.next)
	}
}

func TestTransport_AllEndpointsDown(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	tr := testTransport(t, wsURL(dead))
	_, err := tr.Connect(context.Background())
	var tErr *datasync.TransportError
	if !errors.As(err, &tErr) || tErr.Op != "dial" {
		t.Errorf("Connect() error = %v, want dial TransportError", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err == nil {
		t.Error("config without urls should be invalid")
	}
	cfg := DefaultConfig("ws://localhost:9095/websocket")
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	cfg.ControlRate = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero control rate should be invalid")
	}
}

func TestNew_GeneratesNodeID(t *testing.T) {
	tr, err := New(DefaultConfig("ws://localhost:1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if tr.NodeID() == "" {
		t.Error("NodeID() is empty")
	}
}
