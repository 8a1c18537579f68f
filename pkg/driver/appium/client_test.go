package appium

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/devicelab-dev/device-agent/pkg/core"
)

// writeJSON encodes data as JSON to the response writer.
func writeJSON(w http.ResponseWriter, data interface{}) {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func testClient(serverURL string, retries int) *Client {
	return NewClient(&core.Descriptor{ServerURL: serverURL, TransportRetries: retries})
}

func TestClient_Request(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/status" && r.Method == "GET" {
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"ready": true},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(server.URL, 0)
	resp, err := client.get(context.Background(), "/status")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok || value["ready"] != true {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestClient_WebDriverErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "invalid session id",
				"message": "session deleted",
			},
		})
	}))
	defer server.Close()

	client := testClient(server.URL, 3)
	_, err := client.get(context.Background(), "/session/dead")
	if err == nil {
		t.Fatal("expected a WebDriver error")
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("WebDriver errors must not be retried, got %d calls", got)
	}
}

func TestClient_TransportErrorRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// First attempt: unparseable 502 from a flaky proxy. Second: success.
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("bad gateway"))
			return
		}
		writeJSON(w, map[string]interface{}{"value": nil})
	}))
	defer server.Close()

	client := testClient(server.URL, 2)
	_, err := client.get(context.Background(), "/status")
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 calls, got %d", got)
	}
}

func TestClient_RetriesExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := testClient(server.URL, 2)
	_, err := client.get(context.Background(), "/status")
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}

	// Initial attempt plus two retries.
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestClient_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := testClient(server.URL, 0)
	_, err := client.get(context.Background(), "/status")
	if err == nil {
		t.Fatal("expected a connection error")
	}
}
