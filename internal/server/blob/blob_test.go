package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))
}

func TestParseDataURL(t *testing.T) {
	ct, data, err := ParseDataURL(pngDataURL())
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, []byte("\x89PNG fake"), data)

	ct, data, err = ParseDataURL("data:,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", ct)
	assert.Equal(t, "hello world", string(data))

	for _, bad := range []string{"", "hello", "data:image/png;base64", "data:image/png;base64,!!!", "data:image/png;base64,"} {
		_, _, err := ParseDataURL(bad)
		assert.ErrorIs(t, err, common.ErrorValidation, bad)
	}
}

func TestMediaTypeOf(t *testing.T) {
	assert.Equal(t, "image", MediaTypeOf("image/jpeg"))
	assert.Equal(t, "video", MediaTypeOf("video/mp4"))
	assert.Equal(t, "raw", MediaTypeOf("application/pdf"))
}

func TestPassthrough(t *testing.T) {
	var s Store = Passthrough{}
	ctx := context.Background()

	obj, err := s.Put(ctx, "x", "")
	require.NoError(t, err)
	assert.Empty(t, obj.URL)

	obj, err = s.Put(ctx, "x", "https://cdn.example/a/b.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a/b.mp4", obj.URL)
	assert.Equal(t, "video", obj.MediaType)

	obj, err = s.Put(ctx, "x", pngDataURL())
	require.NoError(t, err)
	assert.Equal(t, "image", obj.MediaType)

	_, err = s.Put(ctx, "x", "not a url")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

type fakePutter struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	return &s3.PutObjectOutput{}, f.err
}

func withSeams(t *testing.T, putter *fakePutter) *s3.Options {
	t.Helper()
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	captured := &s3.Options{}
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		for _, fn := range optFns {
			fn(captured)
		}
		return putter
	}
	return captured
}

func TestS3Store_UploadsDataURL(t *testing.T) {
	putter := &fakePutter{}
	opts := withSeams(t, putter)

	store, err := NewS3Store(context.Background(), S3Config{
		RootUser: "u", RootPassword: "p", Bucket: "chitchat", Region: "us-east-1",
		BaseEndpoint: "http://minio:9000/",
	})
	require.NoError(t, err)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://minio:9000/", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	obj, err := store.Put(context.Background(), "messages", pngDataURL())
	require.NoError(t, err)

	require.NotNil(t, putter.in)
	assert.Equal(t, "chitchat", *putter.in.Bucket)
	assert.Equal(t, "image/png", *putter.in.ContentType)
	assert.True(t, strings.HasPrefix(*putter.in.Key, "messages/"))
	assert.Equal(t, "http://minio:9000/chitchat/"+*putter.in.Key, obj.URL)
	assert.Equal(t, "image", obj.MediaType)
}

func TestS3Store_HostedURLNotUploaded(t *testing.T) {
	putter := &fakePutter{}
	withSeams(t, putter)

	store, err := NewS3Store(context.Background(), S3Config{Bucket: "b", Region: "us-east-1", PublicURL: "https://cdn"})
	require.NoError(t, err)

	obj, err := store.Put(context.Background(), "profiles", "https://elsewhere/pic.jpg")
	require.NoError(t, err)
	assert.Nil(t, putter.in)
	assert.Equal(t, "https://elsewhere/pic.jpg", obj.URL)
}

func TestS3Store_PutError(t *testing.T) {
	putter := &fakePutter{err: errors.New("access denied")}
	withSeams(t, putter)

	store, err := NewS3Store(context.Background(), S3Config{Bucket: "b", Region: "us-east-1", PublicURL: "https://cdn"})
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "profiles", pngDataURL())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestNewS3Store_ConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no creds")
	}

	_, err := NewS3Store(context.Background(), S3Config{})
	require.Error(t, err)
}
