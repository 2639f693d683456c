package storage

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"resume-qa-go/internal/types"
	"resume-qa-go/pkg/utils"
)

// objectKeyTimeLayout 对象键时间前缀格式
const objectKeyTimeLayout = "20060102_150405"

// ResumeObjectStore 简历原件对象存储接口，MinIO 与 S3 均实现该接口
type ResumeObjectStore interface {
	// UploadResume 上传简历原件，返回存储元数据
	UploadResume(ctx context.Context, filename string, data []byte, uploadedAt time.Time) (types.StorageMetadata, error)

	// PresignedURL 生成对象的临时访问地址
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// DeleteObject 删除对象
	DeleteObject(ctx context.Context, key string) error
}

// ObjectKey 生成对象键: "YYYYMMDD_HHMMSS_<文件名>"
func ObjectKey(filename string, uploadedAt time.Time) string {
	return uploadedAt.Format(objectKeyTimeLayout) + "_" + filepath.Base(filename)
}

// ContentTypeFor 根据文件扩展名返回 Content-Type
func ContentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// publicURL 拼接公开访问地址，未配置 base 时返回空串
func publicURL(baseURL, key string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/" + key
}

// buildMetadata 组装上传结果
func buildMetadata(key, filename string, size int64, fileURL string, uploadedAt time.Time) types.StorageMetadata {
	return types.StorageMetadata{
		ID:        key,
		Filename:  filepath.Base(filename),
		FilePath:  key,
		FileURL:   utils.StringPtr(fileURL),
		CreatedAt: uploadedAt,
		Size:      size,
	}
}
