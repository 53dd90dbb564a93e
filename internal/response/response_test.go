package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusOK, Response{Status: "success", Message: "test message"})
	if err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", w.Header().Get("Content-Type"))
	}

	var result Response
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Status != "success" || result.Message != "test message" {
		t.Errorf("Unexpected response %+v", result)
	}
}

func TestWriteProblem(t *testing.T) {
	w := httptest.NewRecorder()

	p := Problem{StatusCode: http.StatusBadRequest, Code: "validation_error", Message: "fecha inválida", Field: "start"}
	if err := WriteProblem(w, p, nil); err != nil {
		t.Fatalf("WriteProblem failed: %v", err)
	}

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	var result Response
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Status != "error" || result.Code != "validation_error" || result.Field != "start" {
		t.Errorf("Unexpected response %+v", result)
	}
	if result.Error != "fecha inválida" {
		t.Errorf("Expected error 'fecha inválida', got '%s'", result.Error)
	}
}

func TestWriteHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter) error
		status int
	}{
		{"bad request", func(w http.ResponseWriter) error { return WriteBadRequest(w, "x") }, http.StatusBadRequest},
		{"not found", func(w http.ResponseWriter) error { return WriteNotFound(w, "x") }, http.StatusNotFound},
		{"internal", func(w http.ResponseWriter) error { return WriteInternalError(w, "x") }, http.StatusInternalServerError},
		{"success", func(w http.ResponseWriter) error { return WriteSuccess(w, "ok", map[string]int{"n": 1}) }, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := tt.write(w); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}
