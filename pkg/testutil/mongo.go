package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	pkgmongo "github.com/wms-platform/picking-orchestrator/pkg/mongodb"
)

// MongoImage is the server version integration tests run against
const MongoImage = "mongo:6"

// NewMongoClient starts a throwaway MongoDB container and returns an
// instrumented client bound to a database named after the test. The
// container is terminated when the test finishes.
func NewMongoClient(t *testing.T) *pkgmongo.InstrumentedClient {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := mongodb.Run(ctx, MongoImage)
	require.NoError(t, err, "failed to start mongodb container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	config := pkgmongo.DefaultConfig()
	config.URI = uri
	config.Database = "picking_test"
	config.MinPoolSize = 0

	client, err := pkgmongo.NewClient(ctx, config)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close(context.Background())
	})

	return pkgmongo.NewInstrumentedClient(client, nil, logging.NewNop())
}

// Context returns a context cancelled at test cleanup
func Context(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
