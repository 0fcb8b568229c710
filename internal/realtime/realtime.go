// Package realtime fans committed row changes out to connected viewers over
// redis pub/sub, so dashboard tables converge without a refresh.
package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

const channel = "festpass:changes"

// Change is one row-change event.
type Change struct {
	Table string `json:"table"`
	ID    int64  `json:"id"`
	Op    string `json:"op"`
}

// Notifier publishes change events after every committed transition.
type Notifier struct {
	client *redis.Client
}

// NewNotifier creates a redis-backed notifier.
func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

// RowChanged publishes one change event. Delivery is best effort; a dropped
// event only delays UI convergence until the next poll.
func (n *Notifier) RowChanged(ctx context.Context, table string, id int64, op string) {
	if n == nil || n.client == nil {
		return
	}
	payload, err := json.Marshal(Change{Table: table, ID: id, Op: op})
	if err != nil {
		return
	}
	if err := n.client.Publish(ctx, channel, payload).Err(); err != nil {
		log.Printf("realtime: publish failed: %v", err)
	}
}

// Subscribe streams change events until ctx is cancelled.
func Subscribe(ctx context.Context, client *redis.Client) (<-chan Change, error) {
	sub := client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, err
	}
	out := make(chan Change)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var ch Change
				if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
					continue
				}
				select {
				case out <- ch:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
