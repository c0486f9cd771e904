package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"persona-review/internal/shared/storage/object"
)

type fakeAPI struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{objects: map[string][]byte{}}
}

func (f *fakeAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = body
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "doc/file.pdf", want: "doc/file.pdf"},
		{name: "simple prefix", prefix: "uploads", key: "doc/file.pdf", want: "uploads/doc/file.pdf"},
		{name: "prefix and key slashes", prefix: "/uploads/", key: "/doc/file.pdf", want: "uploads/doc/file.pdf"},
		{name: "empty key", prefix: "uploads", key: "", want: "uploads"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestStoreRoundTrip(t *testing.T) {
	api := newFakeAPI()
	store := NewWithClient(api, "bucket", "/uploads/", "")
	ctx := context.Background()

	stored, err := store.Save(ctx, "doc-1", "guide.pdf", strings.NewReader("%PDF-1.4 body"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stored.Key, "doc-1/"))
	require.True(t, strings.HasSuffix(stored.Key, "_guide.pdf"))
	require.EqualValues(t, len("%PDF-1.4 body"), stored.SizeBytes)
	require.Equal(t, "application/pdf", stored.MimeType)

	require.Len(t, api.puts, 1)
	require.Equal(t, "uploads/"+stored.Key, aws.ToString(api.puts[0].Key))
	require.Equal(t, s3types.ServerSideEncryptionAes256, api.puts[0].ServerSideEncryption)

	data, err := object.ReadAll(ctx, store, stored.Key)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 body", string(data))

	require.NoError(t, store.Delete(ctx, stored.Key))
	_, err = store.Open(ctx, stored.Key)
	require.True(t, errors.Is(err, object.ErrNotFound))
}

func TestStoreUsesKMSWhenConfigured(t *testing.T) {
	api := newFakeAPI()
	store := NewWithClient(api, "bucket", "", "kms-key")

	_, err := store.Save(context.Background(), "doc-2", "notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	require.Equal(t, s3types.ServerSideEncryptionAwsKms, api.puts[0].ServerSideEncryption)
	require.Equal(t, "kms-key", aws.ToString(api.puts[0].SSEKMSKeyId))
}
