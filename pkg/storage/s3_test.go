package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	calls int
	url   string
	err   error
}

func (f *fakePresigner) PresignGetObject(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: f.url}, nil
}

// fakeS3Client stubs the object-level API with canned results per method.
type fakeS3Client struct {
	putErr  error
	getOut  *s3.GetObjectOutput
	getErr  error
	headOut *s3.HeadObjectOutput
	headErr error
	delErr  error

	puts, gets, heads, deletes int
	lastKey                    string
}

func (f *fakeS3Client) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts++
	f.lastKey = aws.ToString(in.Key)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3Client) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gets++
	f.lastKey = aws.ToString(in.Key)
	return f.getOut, f.getErr
}

func (f *fakeS3Client) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.heads++
	f.lastKey = aws.ToString(in.Key)
	return f.headOut, f.headErr
}

func (f *fakeS3Client) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes++
	f.lastKey = aws.ToString(in.Key)
	if f.delErr != nil {
		return nil, f.delErr
	}
	return &s3.DeleteObjectOutput{}, nil
}

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

func s3Backend(client *fakeS3Client) *S3 {
	return &S3{client: client, cfg: S3Config{Bucket: "photos"}}
}

func TestS3Config_Configured(t *testing.T) {
	t.Parallel()

	require.False(t, S3Config{}.Configured())
	require.False(t, S3Config{Bucket: "b", AccessKey: "a"}.Configured())
	require.True(t, S3Config{Bucket: "b", AccessKey: "a", SecretKey: "s"}.Configured())
}

func TestNewS3_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewS3(S3Config{Bucket: "photos"})
	require.ErrorIs(t, err, ErrInvalidConfig)

	backend, err := NewS3(S3Config{Bucket: "photos", AccessKey: "ak", SecretKey: "sk"})
	require.NoError(t, err)
	require.Equal(t, DefaultRegion, backend.cfg.Region)
}

func TestS3_SignedURL_RejectsBeforeNetwork(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fake := &fakePresigner{url: "https://signed.example/photo"}
	backend := &S3{presigner: fake, cfg: S3Config{Bucket: "photos"}}

	_, err := backend.SignedURL(ctx, "", TTLInline, false)
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = backend.SignedURL(ctx, "   ", TTLInline, false)
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = backend.SignedURL(ctx, "acme/photo.jpg", 0, false)
	require.ErrorIs(t, err, ErrInvalidTTL)

	_, err = backend.SignedURL(ctx, "acme/photo.jpg", -time.Minute, false)
	require.ErrorIs(t, err, ErrInvalidTTL)

	require.Zero(t, fake.calls, "validation failures must not reach the presigner")
}

func TestS3_SignedURL_Presigns(t *testing.T) {
	t.Parallel()

	fake := &fakePresigner{url: "https://signed.example/acme/photo.jpg?sig=x"}
	backend := &S3{presigner: fake, cfg: S3Config{Bucket: "photos"}}

	got, err := backend.SignedURL(context.Background(), "acme/photo.jpg", TTLAttachment, false)
	require.NoError(t, err)
	require.Equal(t, fake.url, got)
	require.Equal(t, 1, fake.calls)
}

func TestS3_SignedURL_CDNBypass(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fake := &fakePresigner{url: "https://signed.example/x"}
	backend := &S3{
		presigner: fake,
		cfg:       S3Config{Bucket: "photos", CDNBaseURL: "https://cdn.example.com/"},
	}

	t.Run("cdn hint serves from the edge unsigned", func(t *testing.T) {
		got, err := backend.SignedURL(ctx, "acme/my photo.jpg", TTLInline, true)
		require.NoError(t, err)
		require.Equal(t, "https://cdn.example.com/acme/my%20photo.jpg", got)
		require.Zero(t, fake.calls)
	})

	t.Run("attachment path bypasses the cdn", func(t *testing.T) {
		got, err := backend.SignedURL(ctx, "acme/photo.jpg", TTLAttachment, false)
		require.NoError(t, err)
		require.Equal(t, fake.url, got)
		require.Equal(t, 1, fake.calls)
	})
}

func TestS3_Store(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("uploads and returns the key", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3Client{}
		got, err := s3Backend(client).Store(ctx, "acme/photo.jpg", []byte("bytes"), "image/jpeg")
		require.NoError(t, err)
		require.Equal(t, "acme/photo.jpg", got)
		require.Equal(t, 1, client.puts)
		require.Equal(t, "acme/photo.jpg", client.lastKey)
	})

	t.Run("validates before any call", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3Client{}
		backend := s3Backend(client)

		_, err := backend.Store(ctx, "../escape.jpg", []byte("x"), "")
		require.ErrorIs(t, err, ErrInvalidKey)
		_, err = backend.Store(ctx, "acme/photo.jpg", nil, "")
		require.ErrorIs(t, err, ErrEmptyFile)
		require.Zero(t, client.puts)
	})

	t.Run("access denied maps to sentinel", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3Client{putErr: apiError("AccessDenied")}
		_, err := s3Backend(client).Store(ctx, "acme/photo.jpg", []byte("x"), "")
		require.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("other failures keep the store sentinel", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3Client{putErr: errors.New("connection reset")}
		_, err := s3Backend(client).Store(ctx, "acme/photo.jpg", []byte("x"), "")
		require.ErrorIs(t, err, ErrStoreFailed)
	})
}

func TestS3_Open(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns the object body", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3Client{getOut: &s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("jpeg-bytes")),
		}}
		body, err := s3Backend(client).Open(ctx, "acme/photo.jpg")
		require.NoError(t, err)
		defer body.Close()
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		require.Equal(t, "jpeg-bytes", string(data))
	})

	t.Run("typed NoSuchKey maps to not found", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3Client{getErr: &types.NoSuchKey{}}
		_, err := s3Backend(client).Open(ctx, "acme/gone.jpg")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("NoSuchKey code maps to not found", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3Client{getErr: apiError("NoSuchKey")}
		_, err := s3Backend(client).Open(ctx, "acme/gone.jpg")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestS3_Size(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("reports the head content length", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3Client{headOut: &s3.HeadObjectOutput{ContentLength: aws.Int64(512)}}
		size, err := s3Backend(client).Size(ctx, "acme/photo.jpg")
		require.NoError(t, err)
		require.Equal(t, int64(512), size)
	})

	t.Run("NotFound code maps to not found", func(t *testing.T) {
		t.Parallel()
		// HeadObject reports absence as a bare 404 NotFound, not NoSuchKey.
		client := &fakeS3Client{headErr: apiError("NotFound")}
		_, err := s3Backend(client).Size(ctx, "acme/gone.jpg")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestS3_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("deletes an existing object", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3Client{headOut: &s3.HeadObjectOutput{}}
		deleted, err := s3Backend(client).Delete(ctx, "acme/photo.jpg")
		require.NoError(t, err)
		require.True(t, deleted)
		require.Equal(t, 1, client.heads)
		require.Equal(t, 1, client.deletes)
	})

	t.Run("absent key is idempotent", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3Client{headErr: apiError("NotFound")}
		deleted, err := s3Backend(client).Delete(ctx, "acme/gone.jpg")
		require.NoError(t, err)
		require.False(t, deleted)
		require.Zero(t, client.deletes, "absent keys must not reach DeleteObject")
	})

	t.Run("head failures other than absence surface", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3Client{headErr: apiError("Forbidden")}
		_, err := s3Backend(client).Delete(ctx, "acme/photo.jpg")
		require.ErrorIs(t, err, ErrAccessDenied)
		require.Zero(t, client.deletes)
	})

	t.Run("delete failures keep the delete sentinel", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3Client{headOut: &s3.HeadObjectOutput{}, delErr: errors.New("boom")}
		_, err := s3Backend(client).Delete(ctx, "acme/photo.jpg")
		require.ErrorIs(t, err, ErrDeleteFailed)
	})
}

func TestS3_TTLPolicy(t *testing.T) {
	t.Parallel()

	require.Equal(t, 5*time.Minute, TTLAttachment)
	require.Equal(t, 15*time.Minute, TTLInline)
}
