// Package notifications publishes platform events into Redis channels so
// external consumers (webhook relays, agent pollers) can react to them.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is the payload published for every platform notification.
type Event struct {
	Type      string    `json:"type"`
	AgentID   uint      `json:"agent_id,omitempty"`
	ReportID  uint      `json:"report_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Event types.
const (
	EventReportFiled = "report_filed"
	EventAgentBanned = "agent_banned"
)

// Notifier provides helpers to publish events into Redis channels.
// All methods are no-ops when Redis is unavailable.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishAgent sends an event to a single agent's channel.
func (n *Notifier) PublishAgent(ctx context.Context, agentID uint, event Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, AgentChannel(agentID), string(payload)).Err()
}

// PublishBroadcast sends an event to all subscribers.
func (n *Notifier) PublishBroadcast(ctx context.Context, event Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, "notifications:broadcast", string(payload)).Err()
}

// StartPatternSubscriber subscribes to `notifications:agent:*` and the
// broadcast channel and calls onMessage for each incoming message.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "notifications:agent:*", "notifications:broadcast")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// AgentChannel derives the Redis channel name for an agent.
func AgentChannel(agentID uint) string {
	return "notifications:agent:" + strconv.FormatUint(uint64(agentID), 10)
}
