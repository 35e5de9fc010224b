// Package photostore uploads flight photos to S3-compatible object storage.
package photostore

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/BearBump/FlightBox/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	DefaultMaxBytes = 10 << 20
	defaultFolder   = "flights"
)

type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// PublicBaseURL is prepended to object keys in returned URLs.
	PublicBaseURL string
	UsePathStyle  bool
	MaxBytes      int64
}

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Store struct {
	s3       putter
	bucket   string
	baseURL  string
	maxBytes int64
	newKey   func() string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("photostore: bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "load s3 config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	base := cfg.PublicBaseURL
	if base == "" {
		base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return newWithClient(client, cfg.Bucket, base, cfg.MaxBytes), nil
}

func newWithClient(c putter, bucket, baseURL string, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{
		s3:       c,
		bucket:   bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		newKey:   uuid.NewString,
	}
}

// BaseURL is the public prefix of every URL Upload returns.
func (s *Store) BaseURL() string { return s.baseURL }

var folderRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Upload stores one image and returns it as a flight photo with its pixel size.
func (s *Store) Upload(ctx context.Context, folder string, r io.Reader) (models.Photo, error) {
	folder = strings.ToLower(strings.TrimSpace(folder))
	if folder == "" {
		folder = defaultFolder
	}
	if !folderRe.MatchString(folder) {
		return models.Photo{}, models.Validationf("folder %q is invalid", folder)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return models.Photo{}, errors.Wrap(err, "read photo")
	}
	if int64(len(data)) > s.maxBytes {
		return models.Photo{}, models.Validationf("photo is larger than %d bytes", s.maxBytes)
	}
	if len(data) == 0 {
		return models.Photo{}, models.Validationf("photo is empty")
	}

	contentType := http.DetectContentType(data)
	ext, ok := extByType[contentType]
	if !ok {
		return models.Photo{}, models.Validationf("unsupported photo type %s", contentType)
	}
	ic, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.Photo{}, models.Validationf("photo is not a valid image: %v", err)
	}

	key := fmt.Sprintf("%s/%s%s", folder, s.newKey(), ext)
	_, err = s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return models.Photo{}, errors.Wrap(err, "s3 put object")
	}

	return models.Photo{
		URL:    s.baseURL + "/" + key,
		Width:  ic.Width,
		Height: ic.Height,
	}, nil
}
