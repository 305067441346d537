package natsbridge

import (
	"testing"
	"time"

	"github.com/studyfrog/core/internal/dispatch"
)

func TestEmbeddedServerAndPublishRoundTrip(t *testing.T) {
	srv, err := NewEmbeddedServer(EmbeddedServerConfig{Port: -1})
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Stop()

	pub, err := Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer pub.Close()

	sub, err := pub.conn.SubscribeSync(subjectPrefix + "clicked-easy-button")
	if err != nil {
		t.Fatalf("SubscribeSync() error = %v", err)
	}

	d := dispatch.New()
	SubscribeAll(d, pub, "clicked-easy-button")
	d.Dispatch("clicked-easy-button", dispatch.Global, map[string]any{"item": "FLASHCARD_0"})

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg() error = %v", err)
	}
	if len(msg.Data) == 0 {
		t.Error("expected a non-empty bridged message")
	}
}
