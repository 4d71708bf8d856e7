package datadog

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haashiraaa/data-analysis-projects/internal/metrics"
)

func TestLabelsToTags(t *testing.T) {
	assert.Nil(t, labelsToTags(nil))
	assert.Equal(t,
		[]string{"job:bank", "stage:coerce", "status:success"},
		labelsToTags(metrics.Labels{"status": "success", "job": "bank", "stage": "coerce"}))
}

func TestNewBackend_RequiresAddr(t *testing.T) {
	_, err := NewBackend(Config{})
	assert.Error(t, err)
}

/*
Counters reach a DogStatsD listener with the namespace prefix and label tags
once the backend is flushed.
*/
func TestBackend_SendsToAgent(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	b, err := NewBackend(Config{Addr: conn.LocalAddr().String(), Namespace: "tidy."})
	require.NoError(t, err)

	b.IncCounter(metrics.RowsTotal, 7, metrics.Labels{"job": "bank", "kind": "saved"})
	require.NoError(t, b.Flush())

	line := readMetric(t, conn, "tidy."+metrics.RowsTotal+":")
	assert.True(t, strings.HasPrefix(line, "tidy."+metrics.RowsTotal+":7|c"), line)
	assert.Contains(t, line, "job:bank,kind:saved")
}

// readMetric returns the first received line starting with prefix. Client
// telemetry may share the socket, so other lines are skipped.
func readMetric(t *testing.T, conn net.PacketConn, prefix string) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 65536)
	for {
		n, _, err := conn.ReadFrom(buf)
		require.NoError(t, err, "no %q metric received", prefix)
		for _, line := range strings.Split(string(buf[:n]), "\n") {
			if strings.HasPrefix(line, prefix) {
				return line
			}
		}
	}
}

func TestBackend_NilClient(t *testing.T) {
	b := &Backend{}
	assert.NotPanics(t, func() {
		b.IncCounter(metrics.StageTotal, 1, nil)
		b.ObserveHistogram(metrics.StageDuration, 1, nil)
	})
	assert.NoError(t, b.Flush())
}
