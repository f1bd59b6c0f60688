package redis

import (
	"fmt"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harbour-fi/ramp-go/pkg/persistence"
)

func newTestStore(t *testing.T, mr *miniredis.Miniredis, prefix string) *RedisAddressStore {
	t.Helper()
	rs, err := NewRedisAddressStore(&RedisConfig{Address: mr.Addr(), KeyPrefix: prefix}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rs.Close() })
	return rs
}

func TestRedisAddressStore_AddAndList(t *testing.T) {
	mr := miniredis.RunT(t)
	rs := newTestStore(t, mr, "")

	list, err := rs.ListAddresses()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, rs.AddAddresses([]string{"0xa", "0xb"}))
	require.NoError(t, rs.AddAddresses([]string{"0xb", "0xc"}))

	list, err = rs.ListAddresses()
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa", "0xb", "0xc"}, list)

	raw, err := mr.Get(keyAddresses)
	require.NoError(t, err)
	assert.JSONEq(t, `["0xa","0xb","0xc"]`, raw)
}

func TestRedisAddressStore_SharedAcrossClients(t *testing.T) {
	mr := miniredis.RunT(t)
	first := newTestStore(t, mr, "alice:")
	second := newTestStore(t, mr, "alice:")
	other := newTestStore(t, mr, "bob:")

	require.NoError(t, first.AddAddresses([]string{"0xa"}))
	require.NoError(t, second.AddAddresses([]string{"0xb"}))

	list, err := first.ListAddresses()
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa", "0xb"}, list)

	list, err = other.ListAddresses()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRedisAddressStore_Clear(t *testing.T) {
	mr := miniredis.RunT(t)
	rs := newTestStore(t, mr, "")

	require.NoError(t, rs.AddAddresses([]string{"0xa"}))
	require.NoError(t, rs.ClearAddresses())
	require.NoError(t, rs.ClearAddresses())

	list, err := rs.ListAddresses()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRedisAddressStore_Concurrent(t *testing.T) {
	mr := miniredis.RunT(t)
	rs := newTestStore(t, mr, "")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, rs.AddAddresses([]string{fmt.Sprintf("0x%02d", i)}))
		}(i)
	}
	wg.Wait()

	list, err := rs.ListAddresses()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"0x00", "0x01", "0x02", "0x03"}, list)
}

func TestRedisAddressStore_SchemaMismatch(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set(keySchemaVersion, "v0"))

	_, err := NewRedisAddressStore(&RedisConfig{Address: mr.Addr()}, zaptest.NewLogger(t))
	require.ErrorContains(t, err, "unsupported schema version")
}

func TestRedisAddressStore_HealthAndClose(t *testing.T) {
	mr := miniredis.RunT(t)
	rs := newTestStore(t, mr, "")

	require.NoError(t, rs.HealthCheck())
	require.NoError(t, rs.Close())
	require.NoError(t, rs.Close())

	assert.ErrorIs(t, rs.HealthCheck(), persistence.ErrStoreClosed)
	assert.ErrorIs(t, rs.AddAddresses([]string{"0xa"}), persistence.ErrStoreClosed)
	_, err := rs.ListAddresses()
	assert.ErrorIs(t, err, persistence.ErrStoreClosed)
}

func TestNewRedisAddressStore_InvalidConfig(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewRedisAddressStore(nil, logger)
	require.Error(t, err)

	_, err = NewRedisAddressStore(&RedisConfig{}, logger)
	require.Error(t, err)
}
