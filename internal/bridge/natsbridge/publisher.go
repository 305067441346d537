package natsbridge

import (
	"encoding/json"
	"fmt"
	"time"

	nc "github.com/nats-io/nats.go"

	"github.com/studyfrog/core/internal/dispatch"
)

// subjectPrefix namespaces every bridged subject under the core's name.
const subjectPrefix = "studyfrog.events."

// Publisher forwards dispatched events onto a NATS subject per event
// name, reconnecting indefinitely on transport loss.
type Publisher struct {
	conn *nc.Conn
}

// Connect dials url and returns a ready-to-use Publisher.
func Connect(url string) (*Publisher, error) {
	opts := []nc.Option{
		nc.ReconnectWait(2 * time.Second),
		nc.MaxReconnects(-1),
		nc.DisconnectErrHandler(func(_ *nc.Conn, err error) {
			if err != nil {
				fmt.Printf("[NATSBRIDGE] disconnected: %v\n", err)
			}
		}),
		nc.ReconnectHandler(func(c *nc.Conn) {
			fmt.Printf("[NATSBRIDGE] reconnected to %s\n", c.ConnectedUrl())
		}),
	}

	conn, err := nc.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("natsbridge: connecting to %s: %w", url, err)
	}
	return &Publisher{conn: conn}, nil
}

// Close releases the underlying connection.
func (p *Publisher) Close() {
	p.conn.Close()
}

// PublishEvent JSON-encodes payload and publishes it to the subject
// derived from event.
func (p *Publisher) PublishEvent(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("natsbridge: marshaling payload for %s: %w", event, err)
	}
	if err := p.conn.Publish(subjectPrefix+event, data); err != nil {
		return fmt.Errorf("natsbridge: publishing %s: %w", event, err)
	}
	return nil
}

// SubscribeAll bridges every event name in events: each dispatched
// firing is republished to NATS under its own subject.
func SubscribeAll(d *dispatch.Dispatcher, p *Publisher, events ...string) {
	for _, event := range events {
		event := event
		d.Subscribe(event, func(payload map[string]any) (any, error) {
			if err := p.PublishEvent(event, payload); err != nil {
				return nil, err
			}
			return true, nil
		}, dispatch.Global, true, -100)
	}
}
