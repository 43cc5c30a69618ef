package camunda

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"score-handler/internal/common/config"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "refused", err: errors.New("dial tcp 10.0.0.1:26500: connect: connection refused"), want: true},
		{name: "grpc unavailable", err: errors.New("rpc error: code = Unavailable desc = transport is closing"), want: true},
		{name: "deadline", err: fmt.Errorf("complete job: %w", context.DeadlineExceeded), want: true},
		{name: "not found", err: errors.New("rpc error: code = NotFound desc = job 42 not found"), want: false},
		{name: "invalid argument", err: errors.New("rpc error: code = InvalidArgument"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	c, err := NewClient(config.CamundaConfig{BrokerAddress: "127.0.0.1:26500"})
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Zeebe())
	assert.Equal(t, "10s", c.requestTimeout.String())
}
