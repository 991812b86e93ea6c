package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodeString(t *testing.T) {
	tests := []struct {
		code StatusCode
		want string
	}{
		{RecvLimitReached, "recv_limit_reached"},
		{AllSendersDone, "all_senders_done"},
		{Running, "running"},
		{RecvTimeout, "recv_timeout"},
		{SendTimeout, "send_timeout"},
		{RecvCancelled, "recv_cancelled"},
		{SendCancelled, "send_cancelled"},
		{SendUnknownError, "send_unknown_error"},
		{StatusCode(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.String())
		})
	}
}

func TestStatusCodeClassification(t *testing.T) {
	assert.False(t, Running.Terminal())
	assert.True(t, AllSendersDone.Terminal())
	assert.True(t, RecvTimeout.Terminal())

	assert.True(t, RecvCancelled.ClosesImmediately())
	assert.True(t, SendTimeout.ClosesImmediately())
	assert.False(t, AllSendersDone.ClosesImmediately())
	assert.False(t, RecvLimitReached.ClosesImmediately())
	assert.False(t, Running.ClosesImmediately())
}
