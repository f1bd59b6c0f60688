package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbour-fi/ramp-go/pkg/persistence"
)

func TestMemoryAddressStore_AddAndList(t *testing.T) {
	s := NewMemoryAddressStore()
	defer func() { _ = s.Close() }()

	list, err := s.ListAddresses()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.AddAddresses([]string{"0xa", "0xb"}))
	require.NoError(t, s.AddAddresses([]string{"0xb", "0xc"}))

	list, err = s.ListAddresses()
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa", "0xb", "0xc"}, list)

	// callers cannot mutate the book through the returned slice
	list[0] = "mutated"
	again, err := s.ListAddresses()
	require.NoError(t, err)
	assert.Equal(t, "0xa", again[0])
}

func TestMemoryAddressStore_Clear(t *testing.T) {
	s := NewMemoryAddressStore()
	require.NoError(t, s.AddAddresses([]string{"0xa"}))
	require.NoError(t, s.ClearAddresses())
	require.NoError(t, s.ClearAddresses())

	list, err := s.ListAddresses()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryAddressStore_Closed(t *testing.T) {
	s := NewMemoryAddressStore()
	require.NoError(t, s.HealthCheck())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.HealthCheck(), persistence.ErrStoreClosed)
	assert.ErrorIs(t, s.AddAddresses([]string{"0xa"}), persistence.ErrStoreClosed)
	assert.ErrorIs(t, s.ClearAddresses(), persistence.ErrStoreClosed)
	_, err := s.ListAddresses()
	assert.ErrorIs(t, err, persistence.ErrStoreClosed)
}

func TestMemoryAddressStore_Concurrent(t *testing.T) {
	s := NewMemoryAddressStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.AddAddresses([]string{fmt.Sprintf("0x%02d", i), "0xshared"}))
		}(i)
	}
	wg.Wait()

	list, err := s.ListAddresses()
	require.NoError(t, err)
	assert.Len(t, list, 21)
}
