package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txenvelope/internal/metrics"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	m.SignatureProduced("aa", "p256")
	m.SignatureProduced("aa", "p256")
	m.DecodeFailed("structural")
	m.CoSigned("feeToken")

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = metrics.New(reg)
	require.Error(t, err)
}

func TestNilService(t *testing.T) {
	var m *metrics.Service
	assert.NotPanics(t, func() {
		m.SignatureProduced("aa", "secp256k1")
		m.DecodeFailed("semantic")
		m.CoSigned("aa")
	})
}
