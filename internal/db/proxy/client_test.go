package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCall_SendsActionAndKey(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(`{"success":true,"points":42}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	var resp struct {
		Points int64 `json:"points"`
	}
	err := c.Call(context.Background(), "getUserPoints", Params{"chat_id": int64(7)}, &resp)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.Points != 42 {
		t.Errorf("points = %d, want 42", resp.Points)
	}
	if got["action"] != "getUserPoints" {
		t.Errorf("action = %v", got["action"])
	}
	if got["api_key"] != "secret" {
		t.Errorf("api_key = %v", got["api_key"])
	}
	if got["chat_id"] != float64(7) {
		t.Errorf("chat_id = %v", got["chat_id"])
	}
}

func TestCall_FailureBecomesCallError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"auth"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, "k").Call(context.Background(), "getUserState", nil, nil)
	var ce *CallError
	if !errors.As(err, &ce) {
		t.Fatalf("want *CallError, got %v", err)
	}
	if ce.Action != "getUserState" || ce.Message != "auth" {
		t.Errorf("unexpected CallError: %+v", ce)
	}
}

func TestCall_Non200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := New(srv.URL, "k").Call(context.Background(), "saveBotUser", nil, nil); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestCall_MalformedBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	if err := New(srv.URL, "k").Call(context.Background(), "getPendingOrder", nil, nil); err == nil {
		t.Fatal("expected error on malformed body")
	}
}
