package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/courier/internal/core/api"
	"github.com/solatis/courier/internal/core/auth"
	"github.com/solatis/courier/internal/core/config"
	"github.com/solatis/courier/internal/core/db"
	"github.com/solatis/courier/internal/identity"
	pb "github.com/solatis/courier/internal/protobuf/courier/transfer/v1"
	"github.com/solatis/courier/internal/types"
)

type harness struct {
	conn   *grpc.ClientConn
	client pb.TransferClient
	apiKey string
}

func startServer(t *testing.T) *harness {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	conn, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.MigrateUp(conn))
	queries, err := db.LoadQueries(conn)
	require.NoError(t, err)

	authenticator := auth.NewAuthenticator(map[string][]byte{
		"0123456789abcdef0123456789abcdef": []byte("server-test-secret-0123456789abcd"),
	}, queries)
	_, apiKey, err := authenticator.Issue(context.Background(), "server-test")
	require.NoError(t, err)

	ids := identity.NewMemory(identity.Entry{Kind: types.KindDocument, LocalID: 3, StableKey: "doc-3"})
	cfg := config.DefaultTransferAPIConfig()
	svc, err := api.NewTransferService(ids, cfg, nil, quiet)
	require.NoError(t, err)

	srv, err := NewGRPCServer(cfg, svc, authenticator, nil, quiet)
	require.NoError(t, err)

	listener := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(listener) }()
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { cc.Close() })

	return &harness{conn: cc, client: pb.NewTransferClient(cc), apiKey: apiKey}
}

func linkBundle(t *testing.T) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(map[string]any{
		"items": []any{map[string]any{
			"id": "page",
			"properties": []any{map[string]any{
				"alias": "link", "editorAlias": types.ContentPickerEditorAlias, "value": "3",
			}},
		}},
	})
	require.NoError(t, err)
	return s
}

func TestNewGRPCServer_Validation(t *testing.T) {
	_, err := NewGRPCServer(nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestServer_HealthIsPublic(t *testing.T) {
	h := startServer(t)

	resp, err := grpc_health_v1.NewHealthClient(h.conn).Check(context.Background(),
		&grpc_health_v1.HealthCheckRequest{Service: pb.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
}

func TestServer_RequiresAPIKey(t *testing.T) {
	h := startServer(t)

	_, err := h.client.PackageBundle(context.Background(), linkBundle(t))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_PackageBundle(t *testing.T) {
	h := startServer(t)
	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-api-key", h.apiKey)

	resp, err := h.client.PackageBundle(ctx, linkBundle(t))
	require.NoError(t, err)

	item := resp.AsMap()["items"].([]any)[0].(map[string]any)
	prop := item["properties"].([]any)[0].(map[string]any)
	assert.Equal(t, "doc-3", prop["value"])

	deps := item["dependencies"].([]any)
	require.Len(t, deps, 1)
	assert.Equal(t, map[string]any{"key": "doc-3", "provider": "document"}, deps[0])
}
