// Package objectstore provides a NATS-based implementation of the AudioStore interface.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/autovid/voice-generator/internal/core"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsAudioStore implements the core.AudioStore interface using a NATS
// JetStream object store bucket. Objects are addressed by deterministic
// keys, so re-uploading a key replaces the previous artifact.
type NatsAudioStore struct {
	jetstreamContext nats.JetStreamContext
	bucket           string
	publicBaseURL    string
	store            nats.ObjectStore
}

// New creates and initializes a new NatsAudioStore. The publicBaseURL is
// the externally reachable prefix under which stored keys are served back,
// e.g. "http://localhost:8080/audio".
func New(jetstreamContext nats.JetStreamContext, bucketName, publicBaseURL string) (*NatsAudioStore, error) {
	// Use a "create-first" approach.
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Storage for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})

	// If the bucket already exists, bind to it.
	if err != nil {
		if errors.Is(err, jetstream.ErrBucketExists) {
			store, err = jetstreamContext.ObjectStore(bucketName)
			if err != nil {
				return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
			}
		} else {
			// For any other error, fail.
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsAudioStore{
		jetstreamContext: jetstreamContext,
		bucket:           bucketName,
		publicBaseURL:    strings.TrimSuffix(publicBaseURL, "/"),
		store:            store,
	}, nil
}

// Upload saves an audio object and returns its durable reference. Putting
// an existing key overwrites it: last write wins on redelivery.
func (n *NatsAudioStore) Upload(_ context.Context, key string, data []byte) (*core.UploadResult, error) {
	reader := bytes.NewReader(data)

	info, err := n.store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     nil,
		Metadata:    nil,
		Opts:        nil,
	}, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	return &core.UploadResult{
		URL:    n.publicBaseURL + "/" + key,
		Bytes:  int64(info.Size),
		Format: strings.TrimPrefix(path.Ext(key), "."),
	}, nil
}

// Download retrieves an audio object from the store.
func (n *NatsAudioStore) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := n.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}
