package amqp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tarancss/chainscan/lib/block/types"
)

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "ETH.found.0xabc", RoutingKey(types.Found{Chain: "ETH", Address: "0xabc"}))
}
