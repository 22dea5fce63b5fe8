// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/chaptra/internal/notify"
)

/*
TestRegistry_SubscribeDispatch verifies delivery to every live stream of
one user and isolation between users.
*/
func TestRegistry_SubscribeDispatch(t *testing.T) {
	registry := notify.NewRegistry()

	first, cancelFirst := registry.Subscribe("user-1")
	second, cancelSecond := registry.Subscribe("user-1")
	other, cancelOther := registry.Subscribe("user-2")
	defer cancelFirst()
	defer cancelSecond()
	defer cancelOther()

	notification := &notify.Notification{ID: "n-1", Type: notify.TypeApproved}
	registry.Dispatch("user-1", notification)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Empty(t, other)

	assert.Equal(t, "n-1", (<-first).ID)
	assert.Equal(t, "n-1", (<-second).ID)
}

/*
TestRegistry_Cancel verifies that a cancelled stream stops receiving and
that IsConnected tracks the live set.
*/
func TestRegistry_Cancel(t *testing.T) {
	registry := notify.NewRegistry()

	assert.False(t, registry.IsConnected("user-1"))

	stream, cancel := registry.Subscribe("user-1")
	assert.True(t, registry.IsConnected("user-1"))

	cancel()
	assert.False(t, registry.IsConnected("user-1"))

	registry.Dispatch("user-1", &notify.Notification{ID: "n-1"})
	assert.Empty(t, stream)
}

/*
TestRegistry_SlowConsumer verifies that a full subscriber buffer drops
the push instead of blocking the dispatcher.
*/
func TestRegistry_SlowConsumer(t *testing.T) {
	registry := notify.NewRegistry()

	stream, cancel := registry.Subscribe("user-1")
	defer cancel()

	// Overfill the buffer; Dispatch must return without blocking
	for index := 0; index < 64; index++ {
		registry.Dispatch("user-1", &notify.Notification{ID: "n"})
	}

	assert.Equal(t, cap(stream), len(stream))
}
