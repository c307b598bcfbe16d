package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// fakeConn feeds inbound frames from a channel and records written frames.
type fakeConn struct {
	in chan []byte

	mu     sync.Mutex
	frames [][]byte

	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case raw, ok := <-f.in:
		if !ok {
			return 0, nil, io.EOF
		}
		return 1, raw, nil
	case <-f.closed:
		return 0, nil, errors.New("use of closed connection")
	}
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	select {
	case <-f.closed:
		return errors.New("use of closed connection")
	default:
	}
	f.mu.Lock()
	f.frames = append(f.frames, append([]byte(nil), data...))
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

// waitForFrame polls until the conn has received a frame of the given type.
func (f *fakeConn) waitForFrame(t *testing.T, eventType string) Envelope {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		for _, raw := range f.frames {
			var env Envelope
			if err := json.Unmarshal(raw, &env); err == nil && env.Type == eventType {
				f.mu.Unlock()
				return env
			}
		}
		f.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s frame", eventType)
	return Envelope{}
}

func (f *fakeConn) frameCount(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, raw := range f.frames {
		var env Envelope
		if err := json.Unmarshal(raw, &env); err == nil && env.Type == eventType {
			n++
		}
	}
	return n
}

func testConvKey(a, b uuid.UUID) string {
	as, bs := a.String(), b.String()
	if as > bs {
		as, bs = bs, as
	}
	return as + "_" + bs
}

func newTestGateway() *Gateway {
	return NewGateway(
		NewMemoryPresence(),
		func(string) (uuid.UUID, error) { return uuid.Nil, errors.New("not used") },
		testConvKey,
		zerolog.Nop(),
	)
}

// connect runs Serve in the background and waits until the connection is
// registered with presence.
func connect(t *testing.T, g *Gateway, user uuid.UUID) (*fakeConn, func()) {
	t.Helper()
	fc := newFakeConn()
	done := make(chan struct{})
	go func() {
		g.Serve(context.Background(), fc, user)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if online, _ := g.presence.IsOnline(context.Background(), user); online {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if online, _ := g.presence.IsOnline(context.Background(), user); !online {
		t.Fatal("connection never registered")
	}

	return fc, func() {
		fc.Close()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after close")
		}
	}
}

func sendEvent(t *testing.T, fc *fakeConn, eventType string, payload interface{}) {
	t.Helper()
	frame, err := NewEnvelope(eventType, payload)
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	fc.in <- frame
}

func TestGateway_ConnectMarksOnlineAndBroadcasts(t *testing.T) {
	g := newTestGateway()
	alice, bob := uuid.New(), uuid.New()

	aliceConn, aliceDone := connect(t, g, alice)
	defer aliceDone()

	_, bobDone := connect(t, g, bob)
	defer bobDone()

	env := aliceConn.waitForFrame(t, EventUserOnline)
	var p PresencePayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("decode presence payload: %v", err)
	}
	if p.UserID != bob {
		t.Errorf("expected online announcement for %s, got %s", bob, p.UserID)
	}
}

func TestGateway_SendMessageRoutedToReceiverOnly(t *testing.T) {
	g := newTestGateway()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	aliceConn, aliceDone := connect(t, g, alice)
	defer aliceDone()
	bobConn, bobDone := connect(t, g, bob)
	defer bobDone()
	carolConn, carolDone := connect(t, g, carol)
	defer carolDone()

	sendEvent(t, aliceConn, EventSendMessage, SendMessagePayload{
		ReceiverID: bob,
		Message:    "hello",
		// Client-supplied key is ignored.
		ConversationID: "spoofed_key",
	})

	env := bobConn.waitForFrame(t, EventReceiveMessage)
	var p ReceiveMessagePayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.SenderID != alice {
		t.Errorf("sender must be the authenticated user, got %s", p.SenderID)
	}
	if p.Message != "hello" {
		t.Errorf("unexpected message %q", p.Message)
	}
	if p.ConversationID != testConvKey(alice, bob) {
		t.Errorf("conversation key must be re-derived server-side, got %q", p.ConversationID)
	}
	if strings.Contains(p.ConversationID, "spoofed") {
		t.Error("client conversation key leaked through")
	}
	if p.Timestamp.IsZero() {
		t.Error("expected a server timestamp")
	}

	time.Sleep(50 * time.Millisecond)
	if carolConn.frameCount(EventReceiveMessage) != 0 {
		t.Error("message leaked to a third party")
	}
	if aliceConn.frameCount(EventReceiveMessage) != 0 {
		t.Error("message echoed back to sender")
	}
}

func TestGateway_SendMessageToOfflineUserDropped(t *testing.T) {
	g := newTestGateway()
	alice, ghost := uuid.New(), uuid.New()

	aliceConn, aliceDone := connect(t, g, alice)
	defer aliceDone()

	sendEvent(t, aliceConn, EventSendMessage, SendMessagePayload{
		ReceiverID: ghost,
		Message:    "anyone there",
	})

	// No error frame, no crash. The gateway just drops it.
	time.Sleep(50 * time.Millisecond)
	if n := aliceConn.frameCount(EventReceiveMessage); n != 0 {
		t.Errorf("expected no frames back, got %d", n)
	}
}

func TestGateway_TypingForwarded(t *testing.T) {
	g := newTestGateway()
	alice, bob := uuid.New(), uuid.New()

	aliceConn, aliceDone := connect(t, g, alice)
	defer aliceDone()
	bobConn, bobDone := connect(t, g, bob)
	defer bobDone()

	sendEvent(t, aliceConn, EventTyping, TypingPayload{ReceiverID: bob, IsTyping: true})

	env := bobConn.waitForFrame(t, EventUserTyping)
	var p UserTypingPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.SenderID != alice {
		t.Errorf("expected sender %s, got %s", alice, p.SenderID)
	}
	if !p.IsTyping {
		t.Error("expected isTyping true")
	}
}

func TestGateway_DisconnectMarksOfflineAndBroadcasts(t *testing.T) {
	g := newTestGateway()
	alice, bob := uuid.New(), uuid.New()

	aliceConn, aliceDone := connect(t, g, alice)
	defer aliceDone()
	_, bobDone := connect(t, g, bob)

	bobDone()

	env := aliceConn.waitForFrame(t, EventUserOffline)
	var p PresencePayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("decode presence payload: %v", err)
	}
	if p.UserID != bob {
		t.Errorf("expected offline announcement for %s, got %s", bob, p.UserID)
	}
	if online, _ := g.presence.IsOnline(context.Background(), bob); online {
		t.Error("expected bob to be offline after disconnect")
	}
}

func TestGateway_MalformedFrameIgnored(t *testing.T) {
	g := newTestGateway()
	alice, bob := uuid.New(), uuid.New()

	aliceConn, aliceDone := connect(t, g, alice)
	defer aliceDone()
	bobConn, bobDone := connect(t, g, bob)
	defer bobDone()

	aliceConn.in <- []byte("{not json")
	aliceConn.in <- []byte(`{"type":"no-such-event","data":{}}`)

	// The connection survives and keeps routing.
	sendEvent(t, aliceConn, EventTyping, TypingPayload{ReceiverID: bob, IsTyping: true})
	bobConn.waitForFrame(t, EventUserTyping)
}

func TestGateway_ShutdownClosesConnections(t *testing.T) {
	g := newTestGateway()
	_, done := connect(t, g, uuid.New())

	g.Shutdown()
	done()

	if g.ConnCount() != 0 {
		t.Errorf("expected 0 connections after shutdown, got %d", g.ConnCount())
	}
}
