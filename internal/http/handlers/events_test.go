package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestEventsStreamsSnapshots(t *testing.T) {
	srv := newTestServer(t, nil)
	sess := srv.create(t)

	httpSrv := httptest.NewServer(srv.handler)
	t.Cleanup(httpSrv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpSrv.URL+"/v1/sessions/"+sess.ID+"/events", nil)
	if err != nil {
		t.Fatalf("NewRequest error: %v", err)
	}
	resp, err := httpSrv.Client().Do(req)
	if err != nil {
		t.Fatalf("events request error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Fatalf("status = %d type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	reader := bufio.NewReader(resp.Body)
	next := func() (string, string) {
		t.Helper()
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read stream: %v", err)
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "":
				if event != "" {
					return event, data
				}
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
	}

	event, data := next()
	if event != "state" {
		t.Fatalf("first event = %q, want state", event)
	}
	var snap sessionResponse
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if snap.ID != sess.ID || snap.Status != "idle" {
		t.Fatalf("unexpected first snapshot %+v", snap)
	}

	srv.doJSON(t, http.MethodPatch, "/v1/sessions/"+sess.ID, map[string]string{"prompt": "sunrise bakery"})
	for {
		event, data = next()
		if err := json.Unmarshal([]byte(data), &snap); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if snap.Prompt == "sunrise bakery" {
			break
		}
	}

	srv.do(t, http.MethodDelete, "/v1/sessions/"+sess.ID, nil, "")
	for event != "closed" {
		event, _ = next()
	}
}
