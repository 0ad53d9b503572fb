package exporters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTLPExporter_UnsupportedProtocol(t *testing.T) {
	exporter, err := NewOTLPExporter(context.Background(), OTLPConfig{Protocol: "udp"})
	require.Error(t, err)
	assert.Nil(t, exporter)
	assert.Contains(t, err.Error(), "udp")
}

func TestExporterOptions(t *testing.T) {
	config := OTLPConfig{
		Endpoint: "collector:4317",
		Insecure: true,
		Headers:  map[string]string{"x-api-key": "k"},
		Timeout:  time.Second,
	}
	assert.Len(t, grpcOptions(config), 5)
	assert.Len(t, httpOptions(config), 4)

	config.Insecure = false
	config.Headers = nil
	assert.Len(t, grpcOptions(config), 2)
	assert.Len(t, httpOptions(config), 2)
}
