// Package upload copies promoted backup artifacts to S3. The upload
// happens strictly after promotion; a failed upload never touches the
// local artifact.
package upload

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"

	"github.com/mongokit/mongokit/internal/config"
)

type S3 struct {
	bucket string
	prefix string
	client *s3.Client
}

func NewS3(ctx context.Context, opt config.OffsiteConfig) (*S3, error) {
	if opt.Bucket == "" || opt.Region == "" {
		return nil, errors.New("offsite: bucket and region are required")
	}

	creds := credentials.NewStaticCredentialsProvider(opt.AccessKey, opt.SecretKey, "")
	cfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(opt.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	return &S3{
		bucket: opt.Bucket,
		prefix: strings.Trim(opt.Prefix, "/"),
		client: s3.NewFromConfig(cfg),
	}, nil
}

// Upload puts the local file under key and returns the s3:// location.
func (u *S3) Upload(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", errors.Wrap(err, "open artifact")
	}
	defer f.Close()

	fullKey := key
	if u.prefix != "" {
		fullKey = path.Join(u.prefix, key)
	}
	loc := fmt.Sprintf("s3://%s/%s", u.bucket, fullKey)

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(fullKey),
		Body:   f,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", errors.Errorf("s3 putobject failed: %s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
		return "", errors.Wrap(err, "s3 putobject failed")
	}
	return loc, nil
}
