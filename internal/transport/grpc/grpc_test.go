package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/dispatch"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/dispatch/dispatchtest"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/job"
)

type harness struct {
	client *Client
	conn   *grpc.ClientConn
	tr     *Transport
	svc    *dispatch.Service
	spk    *dispatchtest.Speaker
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	svc, spk := dispatchtest.NewService()
	lis := bufconn.Listen(1 << 20)
	tr := New(config.GRPCConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- tr.Serve(ctx, lis, svc) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		select {
		case err := <-served:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("grpc server did not stop")
		}
		svc.Wait()
	})
	return &harness{client: NewClient(conn), conn: conn, tr: tr, svc: svc, spk: spk}
}

func TestSubmitAndStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sub, err := h.client.Submit(ctx, &SubmitRequest{Audio: []byte("explain go channels"), ContentType: "audio/wav"})
	require.NoError(t, err)
	assert.Equal(t, job.StatusReceived, sub.Status)

	h.svc.Wait()

	rec, err := h.client.Status(ctx, &StatusRequest{JobID: sub.JobID})
	require.NoError(t, err)
	assert.Equal(t, sub.JobID, rec.ID)
	assert.Equal(t, job.StatusDone, rec.Status)
	assert.Equal(t, "Answer to explain go channels.", rec.Response)

	list, err := h.client.Jobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Summary.Done)

	events, err := h.client.Events(ctx, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, events.Events)
}

func TestErrorCodes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Status(ctx, &StatusRequest{JobID: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, "Job not found", status.Convert(err).Message())

	_, err = h.client.Submit(ctx, &SubmitRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.Ask(ctx, &AskRequest{Question: " "})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.Action(ctx, &ActionRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestAskAndAction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ans, err := h.client.Ask(ctx, &AskRequest{Question: "what is an api for interview"})
	require.NoError(t, err)
	assert.Equal(t, []string{"for_interview"}, ans.Directives)
	assert.Equal(t, "Answer to what is an api.", ans.Response)

	resp, err := h.client.Action(ctx, &ActionRequest{Action: "nod"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"Performing nod"}, h.spk.Said())
}

func TestHealthMirrorsReadiness(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hc := healthpb.NewHealthClient(h.conn)

	h.tr.SetServing(false)
	resp, err := hc.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	h.tr.SetServing(true)
	resp, err = hc.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestCloseWhileServing(t *testing.T) {
	svc, _ := dispatchtest.NewService()
	tr := New(config.GRPCConfig{})
	lis := bufconn.Listen(1 << 20)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- tr.Serve(ctx, lis, svc) }()

	assert.NoError(t, tr.Close())
	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("grpc server did not stop")
	}
}
