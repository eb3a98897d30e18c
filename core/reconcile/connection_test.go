package reconcile

import (
	"context"
	"testing"

	"purchase-reconciler/core/billing"
	billingmocks "purchase-reconciler/core/billing/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func noListener(uint64) billing.Listener { return billing.Listener{} }

func TestConnection_StateTransitions(t *testing.T) {
	session := newSession()
	client := new(billingmocks.Client)
	client.On("Connect", mock.Anything, mock.Anything).Return(session, nil)

	conn := newConnection(client, Config{}, zap.NewNop())
	assert.Equal(t, StateDisconnected, conn.State())

	got, err := conn.connect(context.Background(), noListener)
	require.NoError(t, err)
	assert.Same(t, session, got)
	assert.Equal(t, StateReady, conn.State())

	borrowed, ok := conn.borrow(conn.generation)
	assert.True(t, ok)
	assert.Same(t, session, borrowed)

	_, ok = conn.borrow(conn.generation - 1)
	assert.False(t, ok)

	assert.False(t, conn.disconnected(conn.generation-1))
	assert.True(t, conn.disconnected(conn.generation))
	assert.Equal(t, StateDisconnected, conn.State())
	session.AssertNumberOfCalls(t, "Close", 1)
}

func TestConnection_RejectsOverlappingAttempt(t *testing.T) {
	client := new(billingmocks.Client)
	conn := newConnection(client, Config{}, zap.NewNop())
	conn.state = StateConnecting

	_, err := conn.connect(context.Background(), noListener)
	assert.ErrorIs(t, err, ErrConnectInProgress)
	client.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything)
}

func TestConnection_CloseDuringHandshake(t *testing.T) {
	session := newSession()
	client := new(billingmocks.Client)
	conn := newConnection(client, Config{}, zap.NewNop())

	client.On("Connect", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { conn.close() }).
		Return(session, nil)

	_, err := conn.connect(context.Background(), noListener)
	assert.ErrorIs(t, err, errSessionReplaced)
	assert.Equal(t, StateDisconnected, conn.State())
	session.AssertCalled(t, "Close")
}

func TestConnection_Timeout(t *testing.T) {
	client := new(billingmocks.Client)
	client.On("Connect", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	conn := newConnection(client, Config{ConnectTimeoutSeconds: 1}, zap.NewNop())

	_, err := conn.connect(context.Background(), noListener)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateFailed, conn.State())
	assert.Equal(t, billing.ServiceTimeout, classify(KindConnection, err).Code)
}
