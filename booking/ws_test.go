package booking

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tourbook/models"
)

func TestHubDeliversPublishedBooking(t *testing.T) {
	hub := NewHub()
	id := primitive.NewObjectID()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, id.Hex())
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers(id.Hex()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(&models.Booking{ID: id, Status: models.StatusCancelled})
	hub.Publish(&models.Booking{ID: primitive.NewObjectID(), Status: models.StatusConfirmed})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got models.Booking
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != id || got.Status != models.StatusCancelled {
		t.Fatalf("unexpected update %+v", got)
	}
}

func TestHubForgetsClosedConnections(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, "k")
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers("k") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	conn.Close()

	for hub.Subscribers("k") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed connection still subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubKeepsNoEntriesForUnwatchedBookings(t *testing.T) {
	hub := NewHub()
	for i := 0; i < 1000; i++ {
		hub.Publish(&models.Booking{ID: primitive.NewObjectID(), Status: models.StatusCancelled})
	}
	if n := len(hub.subscribers); n != 0 {
		t.Fatalf("expected no subscriber entries, got %d", n)
	}
}

func TestHubDropsKeyWhenEveryWriteFails(t *testing.T) {
	hub := NewHub()
	serverConn := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConn <- conn
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	var conn *websocket.Conn
	select {
	case conn = <-serverConn:
	case <-time.After(2 * time.Second):
		t.Fatal("server never upgraded")
	}
	conn.Close()

	id := primitive.NewObjectID()
	hub.mu.Lock()
	hub.subscribers[id.Hex()] = []*websocket.Conn{conn}
	hub.mu.Unlock()

	hub.Publish(&models.Booking{ID: id, Status: models.StatusConfirmed})
	if _, ok := hub.subscribers[id.Hex()]; ok {
		t.Fatal("expected the key to be removed after its only connection failed")
	}
}
