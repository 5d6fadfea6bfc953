package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPutObject struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (m *mockPutObject) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.in = in
	if in.Body != nil {
		m.body, _ = io.ReadAll(in.Body)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestAvatarStore_Upload(t *testing.T) {
	t.Parallel()

	client := &mockPutObject{}
	store := NewAvatarStore(client, Config{Bucket: "avatars-bucket", PublicBase: "https://cdn.example.com/"})
	store.now = func() time.Time { return time.Unix(1700000000, 0) }

	url, err := store.Upload(context.Background(), 42, []byte("img"), "image/png")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatars/user_42_avatar?v=1700000000", url)
	assert.Equal(t, "avatars-bucket", aws.ToString(client.in.Bucket))
	assert.Equal(t, "avatars/user_42_avatar", aws.ToString(client.in.Key))
	assert.Equal(t, "image/png", aws.ToString(client.in.ContentType))
	assert.Equal(t, []byte("img"), client.body)
}

func TestAvatarStore_UploadError(t *testing.T) {
	t.Parallel()

	putErr := errors.New("access denied")
	store := NewAvatarStore(&mockPutObject{err: putErr}, Config{Bucket: "b"})

	url, err := store.Upload(context.Background(), 1, []byte("img"), "image/png")

	assert.ErrorIs(t, err, putErr)
	assert.Empty(t, url)
}

func TestPublicBase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit", Config{PublicBase: "https://cdn.example.com/", Bucket: "b"}, "https://cdn.example.com"},
		{"endpoint", Config{Endpoint: "http://127.0.0.1:9000/", Bucket: "b"}, "http://127.0.0.1:9000/b"},
		{"aws", Config{Bucket: "b", Region: "eu-central-1"}, "https://b.s3.eu-central-1.amazonaws.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PublicBase(tt.cfg))
		})
	}
}

func TestNewS3Client(t *testing.T) {
	t.Parallel()

	client, err := NewS3Client(context.Background(), Config{
		Bucket: "b", Region: "us-east-1", Endpoint: "http://127.0.0.1:9000", AccessKey: "minio", SecretKey: "minio123", PathStyle: true,
	})

	require.NoError(t, err)
	assert.True(t, client.Options().UsePathStyle)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(client.Options().BaseEndpoint))
}

func TestDisabledStore(t *testing.T) {
	t.Parallel()

	_, err := DisabledStore{}.Upload(context.Background(), 1, []byte("img"), "image/png")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
