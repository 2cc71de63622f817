package s3

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fidgo/statcache"
)

// fakeClient is an in-memory Client for unit tests; no network involved.
type fakeClient struct {
	objects map[string][]byte
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: make(map[string][]byte)}
}

func (f *fakeClient) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeClient) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeClient) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := NewStore(client, "bucket", "fid-stats/")

	_, err := store.Get(ctx, "missing.fids")
	assert.ErrorIs(t, err, statcache.ErrNotFound)

	require.NoError(t, store.Put(ctx, "ref.fids", []byte("payload")))

	// The root prefix must be applied to the object key.
	_, ok := client.objects["fid-stats/ref.fids"]
	assert.True(t, ok)

	data, err := store.Get(ctx, "ref.fids")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	require.NoError(t, store.Delete(ctx, "ref.fids"))
	_, err = store.Get(ctx, "ref.fids")
	assert.ErrorIs(t, err, statcache.ErrNotFound)
}
