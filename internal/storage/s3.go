package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"resume-qa-go/internal/config"
	"resume-qa-go/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultS3Region = "us-east-1"

// 确保S3实现了ResumeObjectStore接口
var _ ResumeObjectStore = (*S3)(nil)

// S3 S3 兼容对象存储 (AWS S3、Cloudflare R2 等)
type S3 struct {
	client        *s3.Client
	presigner     *s3.PresignClient
	bucket        string
	publicBaseURL string
	presignExpiry time.Duration
	logger        *log.Logger
}

// NewS3 创建S3客户端
func NewS3(ctx context.Context, cfg *config.S3Config, objCfg *config.ObjectStorageConfig, logger *log.Logger) (*S3, error) {
	if cfg == nil {
		return nil, fmt.Errorf("S3配置不能为空")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("S3存储桶名称不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	region := cfg.Region
	if region == "" {
		region = defaultS3Region
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	s := &S3{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		presignExpiry: time.Duration(config.DefaultPresignExpiryMins) * time.Minute,
		logger:        logger,
	}
	if objCfg != nil {
		s.publicBaseURL = objCfg.PublicBaseURL
		if objCfg.PresignExpiryMinutes > 0 {
			s.presignExpiry = time.Duration(objCfg.PresignExpiryMinutes) * time.Minute
		}
	}

	logger.Printf("[S3] Client initialized for bucket: %s, endpoint: %q", cfg.Bucket, cfg.Endpoint)
	return s, nil
}

// UploadResume 上传简历原件
func (s *S3) UploadResume(ctx context.Context, filename string, data []byte, uploadedAt time.Time) (types.StorageMetadata, error) {
	key := ObjectKey(filename, uploadedAt)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(ContentTypeFor(filename)),
	})
	if err != nil {
		s.logger.Printf("[S3-UploadResume] Error uploading %s: %v", key, err)
		return types.StorageMetadata{}, classifyObjectError("上传", key, err, s3StatusCode(err))
	}

	fileURL := publicURL(s.publicBaseURL, key)
	if fileURL == "" {
		fileURL, err = s.PresignedURL(ctx, key, s.presignExpiry)
		if err != nil {
			s.logger.Printf("[S3-UploadResume] Warning: failed to build file URL for %s: %v", key, err)
			fileURL = ""
		}
	}
	return buildMetadata(key, filename, int64(len(data)), fileURL, uploadedAt), nil
}

// PresignedURL 获取预签名URL
func (s *S3) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("生成S3预签名URL失败: %w", err)
	}
	return req.URL, nil
}

// DeleteObject 删除对象
func (s *S3) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classifyObjectError("删除", key, err, s3StatusCode(err))
	}
	return nil
}

// s3StatusCode 从SDK错误链中取出HTTP状态码，取不到时返回0
func s3StatusCode(err error) int {
	var withStatus interface{ HTTPStatusCode() int }
	if errors.As(err, &withStatus) {
		return withStatus.HTTPStatusCode()
	}
	return 0
}
