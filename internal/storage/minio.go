package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"resume-qa-go/internal/config"
	"resume-qa-go/internal/types"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// 确保MinIO实现了ResumeObjectStore接口
var _ ResumeObjectStore = (*MinIO)(nil)

// MinIO 提供对象存储功能
type MinIO struct {
	client        *minio.Client
	cfg           *config.MinIOConfig
	bucket        string
	publicBaseURL string
	presignExpiry time.Duration
	logger        *log.Logger
}

// NewMinIO 创建MinIO客户端并确保存储桶存在
func NewMinIO(cfg *config.MinIOConfig, objCfg *config.ObjectStorageConfig, logger *log.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Printf("[MinIO] Initializing MinIO client with endpoint: %s, bucket: %s", cfg.Endpoint, cfg.BucketName)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		logger.Printf("[MinIO] Initialization failed: %v", err)
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:        client,
		cfg:           cfg,
		bucket:        cfg.BucketName,
		presignExpiry: time.Duration(config.DefaultPresignExpiryMins) * time.Minute,
		logger:        logger,
	}
	if objCfg != nil {
		m.publicBaseURL = objCfg.PublicBaseURL
		if objCfg.PresignExpiryMinutes > 0 {
			m.presignExpiry = time.Duration(objCfg.PresignExpiryMinutes) * time.Minute
		}
	}

	if err := m.ensureBucketExists(context.Background(), m.bucket, cfg.Location); err != nil {
		logger.Printf("[MinIO] Failed to ensure bucket %s exists: %v", m.bucket, err)
		return nil, fmt.Errorf("确保简历存储桶 %s 存在失败: %w", m.bucket, err)
	}

	logger.Printf("[MinIO] Client initialized successfully for endpoint: %s", cfg.Endpoint)
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		m.logger.Printf("[MinIO] Bucket %s already exists.", bucketName)
		return nil
	}
	m.logger.Printf("[MinIO] Bucket %s does not exist, attempting to create...", bucketName)
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	m.logger.Printf("[MinIO] Bucket %s created successfully.", bucketName)
	return nil
}

// UploadResume 上传简历原件
func (m *MinIO) UploadResume(ctx context.Context, filename string, data []byte, uploadedAt time.Time) (types.StorageMetadata, error) {
	key := ObjectKey(filename, uploadedAt)
	contentType := ContentTypeFor(filename)

	if m.cfg.EnableTestLogging {
		m.logger.Printf("[MinIO-UploadResume] Uploading: Key='%s', Size=%d, ContentType='%s', Bucket='%s'", key, len(data), contentType, m.bucket)
	}

	info, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		m.logger.Printf("[MinIO-UploadResume] Error uploading %s: %v", key, err)
		return types.StorageMetadata{}, classifyObjectError("上传", key, err, minio.ToErrorResponse(err).StatusCode)
	}

	if m.cfg.EnableTestLogging {
		m.logger.Printf("[MinIO-UploadResume] Successfully uploaded %s, ETag: %s, Size: %d", key, info.ETag, info.Size)
	}

	fileURL := publicURL(m.publicBaseURL, key)
	if fileURL == "" {
		fileURL, err = m.PresignedURL(ctx, key, m.presignExpiry)
		if err != nil {
			// 地址生成失败不影响上传结果
			m.logger.Printf("[MinIO-UploadResume] Warning: failed to build file URL for %s: %v", key, err)
			fileURL = ""
		}
	}
	return buildMetadata(key, filename, int64(len(data)), fileURL, uploadedAt), nil
}

// PresignedURL 获取预签名URL
func (m *MinIO) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	presignedURL, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成MinIO预签名URL失败: %w", err)
	}
	return presignedURL.String(), nil
}

// DeleteObject 删除文件
func (m *MinIO) DeleteObject(ctx context.Context, key string) error {
	m.logger.Printf("[MinIO] Deleting object: %s", key)
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return classifyObjectError("删除", key, err, minio.ToErrorResponse(err).StatusCode)
	}
	return nil
}
