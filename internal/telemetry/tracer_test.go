package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracerProvider_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracerProvider(context.Background(), "todo-service", "", "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
