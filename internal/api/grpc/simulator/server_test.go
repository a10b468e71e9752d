package simulator

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
	"github.com/oshokin/olt-alarms/internal/domain/indication"
	"github.com/oshokin/olt-alarms/internal/emitter"
	"github.com/oshokin/olt-alarms/internal/service/alarms"
)

// fakeManager implements Manager for unit testing the transport.
type fakeManager struct {
	mu sync.Mutex

	// dispatched and simulated record the indications received.
	dispatched []indication.Indication
	simulated  []indication.Indication

	// simulateErr is returned by Simulate when set.
	simulateErr error

	suppression bool
}

func (f *fakeManager) Dispatch(_ context.Context, ind indication.Indication) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dispatched = append(f.dispatched, ind)
}

func (f *fakeManager) Simulate(_ context.Context, ind indication.Indication) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.simulated = append(f.simulated, ind)

	return f.simulateErr
}

func (f *fakeManager) failWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.simulateErr = err
}

func (f *fakeManager) received() (dispatched, simulated []indication.Indication) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]indication.Indication(nil), f.dispatched...), append([]indication.Indication(nil), f.simulated...)
}

func (f *fakeManager) SetSuppression(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.suppression = enabled
}

func (f *fakeManager) SuppressionEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.suppression
}

// startServer serves srv over an in-memory listener and returns a connected client.
func startServer(t *testing.T, srv IndicationServer) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	grpcServer := grpc.NewServer()
	Register(grpcServer, srv)

	go func() {
		_ = grpcServer.Serve(lis)
	}()

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()

		grpcServer.Stop()
	})

	return NewClient(conn)
}

// TestServer_Dispatch decodes indications and drops undecodable ones without failing.
func TestServer_Dispatch(t *testing.T) {
	t.Parallel()

	manager := new(fakeManager)
	client := startServer(t, NewServer(manager, nil))
	ctx := context.Background()

	_, err := client.Dispatch(ctx, mustStruct(t, map[string]any{"kind": "los_ind", "intf_id": 7, "status": "on"}))
	require.NoError(t, err)

	_, err = client.Dispatch(ctx, mustStruct(t, map[string]any{"kind": "flow_stats"}))
	require.NoError(t, err)

	dispatched, _ := manager.received()
	require.Equal(t, []indication.Indication{&indication.OltLos{IntfID: 7, Status: indication.StatusOn}}, dispatched)
}

// TestServer_Simulate maps failures to gRPC status codes.
func TestServer_Simulate(t *testing.T) {
	t.Parallel()

	manager := new(fakeManager)
	client := startServer(t, NewServer(manager, nil))
	ctx := context.Background()

	_, err := client.Simulate(ctx, mustStruct(t, map[string]any{"kind": "onu_activation_fail_ind", "intf_id": 1, "onu_id": 2}))
	require.NoError(t, err)
	_, simulated := manager.received()
	require.Len(t, simulated, 1)

	_, err = client.Simulate(ctx, mustStruct(t, map[string]any{"kind": "nope"}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	manager.failWith(alarms.ErrPayloadMismatch)
	_, err = client.Simulate(ctx, mustStruct(t, map[string]any{"kind": "los_ind"}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	manager.failWith(errors.New("emitter exploded"))
	_, err = client.Simulate(ctx, mustStruct(t, map[string]any{"kind": "los_ind"}))
	require.Equal(t, codes.Internal, status.Code(err))
}

// TestServer_SetSuppression toggles and reports the flag.
func TestServer_SetSuppression(t *testing.T) {
	t.Parallel()

	manager := &fakeManager{suppression: true}
	client := startServer(t, NewServer(manager, nil))
	ctx := context.Background()

	resp, err := client.SetSuppression(ctx, new(structpb.Struct))
	require.NoError(t, err)
	require.True(t, resp.GetFields()["enabled"].GetBoolValue())

	resp, err = client.SetSuppression(ctx, mustStruct(t, map[string]any{"enabled": false}))
	require.NoError(t, err)
	require.False(t, resp.GetFields()["enabled"].GetBoolValue())
	require.False(t, manager.SuppressionEnabled())

	_, err = client.SetSuppression(ctx, mustStruct(t, map[string]any{"enabled": "no"}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_Watch streams broadcast alarms to the client.
func TestServer_Watch(t *testing.T) {
	t.Parallel()

	feed := emitter.NewBroadcaster(emitter.Source{DeviceID: "olt-1"}, 0)
	client := startServer(t, NewServer(new(fakeManager), feed))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Watch(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return feed.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	feed.Raise(ctx, &domain.Alarm{Kind: domain.OnuDyingGasp, Decision: domain.Raise, InterfaceID: 0,
		Device: domain.DeviceIdentity{DeviceID: "onu-1", SerialNumber: "BRCM00000001"}})
	feed.Clear(ctx, &domain.Alarm{Kind: domain.OnuDyingGasp, Decision: domain.Clear, InterfaceID: 0,
		Device: domain.DeviceIdentity{DeviceID: "onu-1", SerialNumber: "BRCM00000001"}})

	for _, want := range []domain.Decision{domain.Raise, domain.Clear} {
		msg, err := stream.Recv()
		require.NoError(t, err)

		ev, err := DecodeEvent(msg)
		require.NoError(t, err)
		require.Equal(t, want, ev.Alarm.Decision)
		require.Equal(t, "olt-1.ONU_DYING_GASP.0.onu-1", ev.ID)
	}

	cancel()
	require.Eventually(t, func() bool { return feed.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

// TestServer_WatchWithoutFeed reports Unavailable.
func TestServer_WatchWithoutFeed(t *testing.T) {
	t.Parallel()

	client := startServer(t, NewServer(new(fakeManager), nil))

	stream, err := client.Watch(context.Background())
	require.NoError(t, err)

	_, err = stream.Recv()
	require.Equal(t, codes.Unavailable, status.Code(err))
}

// TestOperatorFrom reads the caller identity from incoming metadata.
func TestOperatorFrom(t *testing.T) {
	t.Parallel()

	require.Equal(t, "unknown", operatorFrom(context.Background()))

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(OperatorMetadataKey, "noc@olt-lab"))
	require.Equal(t, "noc@olt-lab", operatorFrom(ctx))
}
