package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxProfilePicSize is the maximum allowed profile picture upload (5MB).
	MaxProfilePicSize = 5 * 1024 * 1024
	// FolderProfilePics is the S3 prefix for profile pictures.
	FolderProfilePics = "profile-pics"
)

// ErrUnsupportedImage is returned for uploads that are not an allowed image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

// Allowed profile picture MIME types and extensions.
var (
	AllowedImageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
	AllowedImageExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
	}
)

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ProfileBucket        string
	PresignExpireMinutes int
}

// S3 stores profile pictures and signs read URLs for them.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or .env (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("profile_bucket", cfg.ProfileBucket))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3{
		client:   client,
		uploader: manager.NewUploader(client),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ImageContentType resolves the MIME type for an upload from its declared type or, failing that,
// its extension.
func ImageContentType(contentType, filename string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if _, ok := AllowedImageTypes[ct]; ok {
		if ct == "image/jpg" {
			ct = "image/jpeg"
		}
		return ct, nil
	}
	if ct, ok := AllowedImageExtensions[strings.ToLower(path.Ext(filename))]; ok {
		return ct, nil
	}
	return "", ErrUnsupportedImage
}

// ProfilePicKey returns a fresh object key: profile-pics/{user_id}/{uuid}{ext}.
func ProfilePicKey(userID int64, contentType string) string {
	ext := AllowedImageTypes[contentType]
	return path.Join(FolderProfilePics, strconv.FormatInt(userID, 10), uuid.New().String()+ext)
}

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// ObjectURL returns the unsigned URL for an object in the profile bucket.
func (s *S3) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.ProfileBucket, s.cfg.Region, key)
}

// UploadProfilePic streams an image to the profile bucket and returns its object key.
func (s *S3) UploadProfilePic(ctx context.Context, userID int64, contentType string, body io.Reader, size int64) (string, error) {
	key := ProfilePicKey(userID, contentType)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.ProfileBucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	s.logger.Debug("profile picture uploaded", zap.Int64("user_id", userID), zap.String("key", key))
	return key, nil
}

// PresignedURL returns a pre-signed GET URL for an object in the profile bucket.
func (s *S3) PresignedURL(ctx context.Context, key string) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.ProfileBucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.PresignExpire()
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// DeleteObject removes an object from the profile bucket.
func (s *S3) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.ProfileBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
