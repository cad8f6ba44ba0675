package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/Baaaki/yamdb/internal/mailer"
)

var codeInBody = regexp.MustCompile(`confirmation code: ([a-z2-7]+)`)

// PerformRequest sends a JSON request through handler. token may be empty.
func PerformRequest(handler http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ServeRequest(handler, req)
}

// ServeRequest runs a prepared request through handler.
func ServeRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// DecodeJSON unmarshals the recorder body into a generic map.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Invalid JSON response %q: %v", w.Body.String(), err)
	}
	return out
}

// CodeFromOutbox extracts the newest confirmation code sent to email.
func CodeFromOutbox(t *testing.T, outboxPath, email string) string {
	t.Helper()
	messages, err := mailer.ReadOutbox(outboxPath)
	if err != nil {
		t.Fatalf("Failed to read outbox: %v", err)
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].To != email {
			continue
		}
		match := codeInBody.FindStringSubmatch(messages[i].Body)
		if match == nil {
			t.Fatalf("No confirmation code in message body %q", messages[i].Body)
		}
		return match[1]
	}
	t.Fatalf("No message sent to %s", email)
	return ""
}
