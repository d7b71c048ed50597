// Package attachments issues presigned upload targets in S3-compatible
// object storage for todo attachments.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/dmitrijs2005/todos/internal/server/config"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

var errNoBucket = errors.New("attachment bucket is not configured")

// Linker maps a record id to an object key and hands out a time-limited
// upload URL for it. It does not check that the record exists.
type Linker struct {
	config *sc.Config
}

func NewLinker(config *sc.Config) *Linker {
	return &Linker{config: config}
}

func (l *Linker) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(l.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			l.config.S3RootUser,
			l.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if l.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(l.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// IssueUploadTarget returns a presigned PUT URL for the object keyed by
// recordID, and the URL the object will be readable at afterwards.
func (l *Linker) IssueUploadTarget(ctx context.Context, recordID string) (string, string, error) {
	if l.config.S3Bucket == "" {
		return "", "", errNoBucket
	}

	presignClient, err := l.getPresignClient(ctx)
	if err != nil {
		return "", "", fmt.Errorf("s3 client: %w", err)
	}

	bucket := l.config.S3Bucket
	key := recordID

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(l.config.SignedURLExpiration))
	if err != nil {
		return "", "", fmt.Errorf("presign put: %w", err)
	}

	return req.URL, l.PublicLocation(key), nil
}

// PublicLocation is the stable URL of the object stored under key. With a
// custom endpoint the path-style form is used, matching the presigned URL.
func (l *Linker) PublicLocation(key string) string {
	escaped := url.PathEscape(key)
	if l.config.S3PublicURL != "" {
		return strings.TrimRight(l.config.S3PublicURL, "/") + "/" + escaped
	}
	if l.config.S3BaseEndpoint != "" {
		return strings.TrimRight(l.config.S3BaseEndpoint, "/") + "/" + url.PathEscape(l.config.S3Bucket) + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", l.config.S3Bucket, escaped)
}
