// Package objectstore_test tests the NATS audio store implementation.
package objectstore_test

import (
	"context"
	"testing"

	"github.com/autovid/voice-generator/internal/objectstore"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StartTestServer starts an in-memory NATS server for testing purposes.
func StartTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := test.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	return natsServer, natsConnection
}

func TestNatsAudioStore_UploadDownload(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := StartTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	store, err := objectstore.New(jetstreamContext, "test-audio", "http://localhost:8080/audio")
	require.NoError(t, err)

	ctx := context.Background()
	key := "voices/J1/0.mp3"
	uploadData := []byte("fake mp3 payload")

	result, err := store.Upload(ctx, key, uploadData)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/audio/voices/J1/0.mp3", result.URL)
	assert.Equal(t, int64(len(uploadData)), result.Bytes)
	assert.Equal(t, "mp3", result.Format)

	downloadData, err := store.Download(ctx, key)
	require.NoError(t, err)
	require.Equal(t, uploadData, downloadData)
}

func TestNatsAudioStore_OverwriteSameKey(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := StartTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	store, err := objectstore.New(jetstreamContext, "test-audio-overwrite", "http://localhost:8080/audio")
	require.NoError(t, err)

	ctx := context.Background()
	key := "voices/J1/0.mp3"

	first, err := store.Upload(ctx, key, []byte("first synthesis"))
	require.NoError(t, err)

	second, err := store.Upload(ctx, key, []byte("second synthesis"))
	require.NoError(t, err)

	// A redelivered job regenerates the same key and the same reference
	// URL; the newest payload wins.
	assert.Equal(t, first.URL, second.URL)

	data, err := store.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second synthesis"), data)
}

func TestNew_BindsToExistingBucket(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := StartTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	_, err = objectstore.New(jetstreamContext, "test-audio-rebind", "http://localhost:8080/audio")
	require.NoError(t, err)

	_, err = objectstore.New(jetstreamContext, "test-audio-rebind", "http://localhost:8080/audio")
	require.NoError(t, err)
}
