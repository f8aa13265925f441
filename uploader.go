package pathwise

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// MaxUploadSize caps uploaded assets at 10MB.
const MaxUploadSize = 10 << 20

var (
	ErrUploadTooLarge = goerrors.New("file exceeds the 10MB upload limit", goerrors.CategoryValidation).
				WithTextCode("UPLOAD_TOO_LARGE").
				WithCode(goerrors.CodeBadRequest)

	ErrUploadNotImage = goerrors.New("only image uploads are accepted", goerrors.CategoryValidation).
				WithTextCode("UPLOAD_NOT_IMAGE").
				WithCode(goerrors.CodeBadRequest)
)

// Uploader stores validated assets and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// CDNUploader pushes image assets to an S3-compatible bucket fronted by a
// CDN. Works with AWS S3 proper or any endpoint speaking the protocol.
type CDNUploader struct {
	client    *s3.Client
	bucket    string
	publicURL string
	logger    Logger
	now       func() time.Time
}

var _ Uploader = (*CDNUploader)(nil)

// NewCDNUploader builds the S3 client from the CDN section of the config.
func NewCDNUploader(ctx context.Context, cfg CDNConfig) (*CDNUploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load storage credentials")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &CDNUploader{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		logger:    defLogger{},
		now:       time.Now,
	}, nil
}

func (u *CDNUploader) WithLogger(l Logger) *CDNUploader {
	if l != nil {
		u.logger = l
	}
	return u
}

// Upload validates the payload and stores it under a date-partitioned key.
// Returns the CDN URL of the stored object.
func (u *CDNUploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	contentType, err := ValidateImagePayload(data)
	if err != nil {
		return "", err
	}

	key := u.objectKey(filename)

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "failed to store upload").
			WithMetadata(map[string]any{"key": key})
	}

	url := fmt.Sprintf("%s/%s", u.publicURL, key)

	u.logger.Info("stored upload %s (%d bytes)", key, len(data))

	return url, nil
}

// objectKey partitions uploads by date so the bucket stays browsable:
// uploads/2026/8/29/<uuid><ext>.
func (u *CDNUploader) objectKey(filename string) string {
	now := u.now().UTC()
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("uploads/%d/%d/%d/%s%s",
		now.Year(), int(now.Month()), now.Day(), uuid.NewString(), ext)
}

// ValidateImagePayload enforces the size cap and sniffs the content type
// from the payload bytes rather than trusting the client's header. Returns
// the detected content type.
func ValidateImagePayload(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrUploadNotImage
	}

	if len(data) > MaxUploadSize {
		return "", ErrUploadTooLarge
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUploadNotImage
	}

	return contentType, nil
}
