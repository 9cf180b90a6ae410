//go:build unit

package order_test

import (
	"testing"

	"orderhub/internal/domain/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusGraph(t *testing.T) {
	all := []order.Status{
		order.StatusPending, order.StatusConfirmed, order.StatusPacking,
		order.StatusShipped, order.StatusDelivered, order.StatusCancelled,
	}

	allowed := map[order.Status][]order.Status{
		order.StatusPending:   {order.StatusConfirmed, order.StatusCancelled},
		order.StatusConfirmed: {order.StatusPacking, order.StatusCancelled},
		order.StatusPacking:   {order.StatusShipped, order.StatusCancelled},
		order.StatusShipped:   {order.StatusDelivered},
		order.StatusDelivered: {},
		order.StatusCancelled: {},
	}

	for from, targets := range allowed {
		legal := make(map[order.Status]bool, len(targets))
		for _, to := range targets {
			legal[to] = true
		}
		for _, to := range all {
			assert.Equal(t, legal[to], from.CanTransitionTo(to),
				"%s -> %s", from, to)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, order.StatusDelivered.IsTerminal())
	assert.True(t, order.StatusCancelled.IsTerminal())

	for _, s := range []order.Status{
		order.StatusPending, order.StatusConfirmed, order.StatusPacking, order.StatusShipped,
	} {
		assert.False(t, s.IsTerminal(), "%s", s)
	}
}

func TestParseStatus(t *testing.T) {
	parsed, ok := order.ParseStatus("SHIPPED")
	require.True(t, ok)
	assert.Equal(t, order.StatusShipped, parsed)

	_, ok = order.ParseStatus("shipped")
	assert.False(t, ok)

	_, ok = order.ParseStatus("RETURNED")
	assert.False(t, ok)
}
