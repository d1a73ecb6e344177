package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUploadSendsMultipartWithAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/files" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("authorization = %q", got)
		}
		part, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer part.Close()
		if header.Filename != "notes.txt" {
			t.Errorf("file name = %q", header.Filename)
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(File{ID: 3, Name: "notes.txt", Status: "pending"})
	}))
	defer srv.Close()

	client := New(srv.URL, WithAPIKey("key-1"))
	file, err := client.Upload(context.Background(), "/tmp/notes.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if file.ID != 3 || file.Status != "pending" {
		t.Errorf("file = %+v", file)
	}
}

func TestAskRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req["question"] != "when is the deadline?" {
			t.Errorf("question = %v", req["question"])
		}
		_ = json.NewEncoder(w).Encode(AskResult{
			ChatID: "chat-9",
			Answer: Answer{Status: "OK", Answer: "March."},
		})
	}))
	defer srv.Close()

	result, err := New(srv.URL).Ask(context.Background(), "", "when is the deadline?", 3)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if result.ChatID != "chat-9" || result.Answer.Answer != "March." {
		t.Errorf("result = %+v", result)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "not_found",
			"message": "not found",
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetFile(context.Background(), 99)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "not_found" {
		t.Errorf("error = %+v", apiErr)
	}
}

func TestDeleteFile(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := New(srv.URL).DeleteFile(context.Background(), 5); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotPath != "DELETE /v1/files/5" {
		t.Errorf("request = %q", gotPath)
	}
}
