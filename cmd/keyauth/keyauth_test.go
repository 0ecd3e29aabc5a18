package keyauth

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txenvelope/internal/envelope/keyauth"
	"github/chapool/go-txenvelope/internal/envelope/tokenid"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions("", nil)
	require.NoError(t, err)
	assert.Nil(t, opts.Expiry)

	opts, err = parseOptions("never", nil)
	require.NoError(t, err)
	require.NotNil(t, opts.Expiry)
	assert.Equal(t, keyauth.NeverExpires, *opts.Expiry)

	opts, err = parseOptions("1900000000", []string{
		"1=1000",
		"0x20c0000000000000000000000000000000000002=5",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1_900_000_000), *opts.Expiry)
	require.Len(t, opts.Limits, 2)
	assert.Equal(t, tokenid.ToAddress(1), opts.Limits[0].Token)
	assert.Equal(t, uint64(1000), opts.Limits[0].Limit.Uint64())
	assert.Equal(t, common.HexToAddress("0x20c0000000000000000000000000000000000002"), opts.Limits[1].Token)

	opts, err = parseOptions("0x10", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), *opts.Expiry)

	for _, bad := range [][]string{{"x"}, {"1"}, {"1=abc"}, {"nope=1"}} {
		_, err := parseOptions("", bad)
		require.Error(t, err, bad)
	}

	_, err = parseOptions("soon", nil)
	require.Error(t, err)
}
