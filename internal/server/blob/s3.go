package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config describes an S3-compatible bucket (AWS or MinIO).
type S3Config struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
	// PublicURL prefixes object keys in returned URLs; defaults to
	// BaseEndpoint/Bucket.
	PublicURL string
}

type S3Store struct {
	cfg    S3Config
	client objectPutter
}

func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.RootUser,
			c.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.BaseEndpoint)
		o.UsePathStyle = true
	})

	if c.PublicURL == "" {
		c.PublicURL = strings.TrimRight(c.BaseEndpoint, "/") + "/" + c.Bucket
	}
	return &S3Store{cfg: c, client: client}, nil
}

// Put uploads data URLs under prefix and returns their public URL. Hosted
// http(s) URLs are returned unchanged.
func (s *S3Store) Put(ctx context.Context, prefix, ref string) (Object, error) {
	if ref == "" {
		return Object{}, nil
	}
	if isHostedURL(ref) {
		return Object{URL: ref, MediaType: mediaTypeOfURL(ref)}, nil
	}

	contentType, data, err := ParseDataURL(ref)
	if err != nil {
		return Object{}, err
	}

	key := newObjectKey(prefix, contentType)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Object{}, fmt.Errorf("s3 put %s: %w", key, err)
	}

	return Object{
		URL:       strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key,
		MediaType: MediaTypeOf(contentType),
	}, nil
}
