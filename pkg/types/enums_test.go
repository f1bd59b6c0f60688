package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtocol_IsEVM(t *testing.T) {
	assert.True(t, Protocol_Ethereum.IsEVM())
	assert.True(t, Protocol_Avax.IsEVM())
	assert.True(t, Protocol_Polygon.IsEVM())
	assert.False(t, Protocol_Cosmos.IsEVM())
	assert.False(t, Protocol_Unspecified.IsEVM())
}
