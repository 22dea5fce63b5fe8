// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/taibuivan/chaptra/internal/platform/constants"
)

// # Live Fan-out Transport

// Publisher defines the outbound hop of the live notification path.
type Publisher interface {

	/*
		PublishUser sends a notification towards a user's live streams,
		wherever in the fleet they are connected.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - notification: *Notification

		Returns:
		  - error: Transport failure (the durable row is unaffected)
	*/
	PublishUser(context context.Context, userID string, notification *Notification) error
}

// RedisPublisher implements [Publisher] over Redis pub/sub channels.
//
// # Why Redis?
//
// The registry only knows about streams on the local instance. Publishing
// through Redis lets any API instance notify a user connected to any other,
// without the instances knowing about each other.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher constructs a Redis-backed [Publisher].
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// PublishUser serializes the notification and publishes it on the
// per-user channel.
func (publisher *RedisPublisher) PublishUser(context context.Context, userID string, notification *Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("notify: failed to marshal notification: %w", err)
	}

	channel := constants.RedisChannelUserNotify + userID
	if err := publisher.client.Publish(context, channel, payload).Err(); err != nil {
		return fmt.Errorf("notify: failed to publish notification: %w", err)
	}

	return nil
}

// # Subscriber Bridge

// Bridge subscribes to the per-user channel pattern and dispatches incoming
// notifications to the local [Registry].
//
// One Bridge runs per API instance, started from cmd/api alongside the HTTP
// server.
type Bridge struct {
	client   *redis.Client
	registry *Registry
	logger   *slog.Logger
}

// NewBridge constructs a pub/sub [Bridge] bound to a local registry.
func NewBridge(client *redis.Client, registry *Registry, logger *slog.Logger) *Bridge {
	return &Bridge{
		client:   client,
		registry: registry,
		logger:   logger,
	}
}

/*
Run consumes the per-user notification channels until the context is
cancelled.

Description: Malformed payloads are logged and skipped; the bridge never
aborts on a single bad message.

Parameters:
  - context: context.Context (cancellation stops the subscription)

Returns:
  - error: nil on context cancellation, transport errors otherwise
*/
func (bridge *Bridge) Run(context context.Context) error {
	pubsub := bridge.client.PSubscribe(context, constants.RedisChannelUserNotifyPattern)
	defer func() {
		if err := pubsub.Close(); err != nil {
			bridge.logger.Error("notify_bridge_close_failed", slog.Any("error", err))
		}
	}()

	bridge.logger.Info("notify_bridge_started",
		slog.String("pattern", constants.RedisChannelUserNotifyPattern),
	)

	messages := pubsub.Channel()
	for {
		select {
		case <-context.Done():
			bridge.logger.Info("notify_bridge_stopped")
			return nil

		case message, open := <-messages:
			if !open {
				return fmt.Errorf("notify: pub/sub channel closed unexpectedly")
			}
			bridge.dispatch(message)
		}
	}
}

// dispatch decodes one pub/sub message and hands it to the registry.
func (bridge *Bridge) dispatch(message *redis.Message) {

	// The user ID is the channel suffix after the fixed prefix
	userID := strings.TrimPrefix(message.Channel, constants.RedisChannelUserNotify)
	if userID == "" || userID == message.Channel {
		bridge.logger.Warn("notify_bridge_unexpected_channel", slog.String("channel", message.Channel))
		return
	}

	var notification Notification
	if err := json.Unmarshal([]byte(message.Payload), &notification); err != nil {
		bridge.logger.Warn("notify_bridge_malformed_payload",
			slog.String("channel", message.Channel),
			slog.Any("error", err),
		)
		return
	}

	bridge.registry.Dispatch(userID, &notification)
}
