package badger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harbour-fi/ramp-go/pkg/persistence"
)

func TestBadgerAddressStore_AddAndList(t *testing.T) {
	bs, err := NewBadgerAddressStore(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	list, err := bs.ListAddresses()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, bs.AddAddresses([]string{"0xa", "0xb"}))
	require.NoError(t, bs.AddAddresses([]string{"0xb", "0xc"}))

	list, err = bs.ListAddresses()
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa", "0xb", "0xc"}, list)
}

func TestBadgerAddressStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)

	bs, err := NewBadgerAddressStore(dir, logger)
	require.NoError(t, err)
	require.NoError(t, bs.AddAddresses([]string{"0xa", "cosmos1abc"}))
	require.NoError(t, bs.Close())

	reopened, err := NewBadgerAddressStore(dir, logger)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	require.NoError(t, reopened.HealthCheck())
	list, err := reopened.ListAddresses()
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa", "cosmos1abc"}, list)
}

func TestBadgerAddressStore_Clear(t *testing.T) {
	bs, err := NewBadgerAddressStore(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	require.NoError(t, bs.AddAddresses([]string{"0xa"}))
	require.NoError(t, bs.ClearAddresses())
	require.NoError(t, bs.ClearAddresses())

	list, err := bs.ListAddresses()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBadgerAddressStore_Concurrent(t *testing.T) {
	bs, err := NewBadgerAddressStore(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = bs.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, bs.AddAddresses([]string{fmt.Sprintf("0x%02d", i)}))
		}(i)
	}
	wg.Wait()

	list, err := bs.ListAddresses()
	require.NoError(t, err)
	assert.Len(t, list, 10)
}

func TestBadgerAddressStore_Closed(t *testing.T) {
	bs, err := NewBadgerAddressStore(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, bs.Close())
	require.NoError(t, bs.Close())

	assert.ErrorIs(t, bs.HealthCheck(), persistence.ErrStoreClosed)
	assert.ErrorIs(t, bs.AddAddresses([]string{"0xa"}), persistence.ErrStoreClosed)
	assert.ErrorIs(t, bs.ClearAddresses(), persistence.ErrStoreClosed)
	_, err = bs.ListAddresses()
	assert.ErrorIs(t, err, persistence.ErrStoreClosed)
}
