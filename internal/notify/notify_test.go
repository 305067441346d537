package notify

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/studyfrog/core/internal/dispatch"
)

func TestToastHandlerRegistersUnderKindEvent(t *testing.T) {
	d := dispatch.New()
	n := NewToastNotifier("")
	n.RegisterHandler(d, "supervisor")

	resp := d.Dispatch("get-supervisor-toast", dispatch.Global, map[string]any{
		"title": "hi", "message": "there",
	})
	if len(resp) != 1 {
		t.Fatalf("expected exactly one handler bucket, got %d", len(resp))
	}
	if !n.IsSupported() && !resp.HasErrors() {
		t.Error("expected an error on a non-Windows platform")
	}
}

func TestWebhookNotifierPostsPayload(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhookNotifier(srv.URL, "studyfrog")
	if err := w.Send("Title", "Message"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotBody == "" {
		t.Error("expected webhook to receive a body")
	}
}

func TestWebhookNotifierSurfacesNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhookNotifier(srv.URL, "studyfrog")
	if err := w.Send("Title", "Message"); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}
