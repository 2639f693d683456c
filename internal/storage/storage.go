package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"resume-qa-go/internal/config"
)

// Storage 存储管理器，聚合所有存储相关依赖
type Storage struct {
	// 简历原件，按配置指向 MinIO 或 S3
	Objects ResumeObjectStore

	MinIO *MinIO
	S3    *S3

	// 候选人文档存储
	MySQL *MySQL

	// 上传去重与上传锁，可选
	Redis *Redis

	// 领域事件，可选
	RabbitMQ *RabbitMQ
}

// NewStorage 按配置初始化存储组件；对象存储与MySQL是必需的
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}
	var err error

	var objLogger *log.Logger
	if cfg.Logger.Level == "debug" || cfg.MinIO.EnableTestLogging {
		objLogger = log.New(os.Stderr, "[ObjectStorage] ", log.LstdFlags|log.Lshortfile)
	} else {
		objLogger = log.New(io.Discard, "", 0)
	}

	switch cfg.ObjectStorage.Provider {
	case config.ProviderS3:
		s.S3, err = NewS3(ctx, &cfg.S3, &cfg.ObjectStorage, objLogger)
		if err != nil {
			return nil, fmt.Errorf("初始化S3失败: %w", err)
		}
		s.Objects = s.S3
	default:
		s.MinIO, err = NewMinIO(&cfg.MinIO, &cfg.ObjectStorage, objLogger)
		if err != nil {
			return nil, fmt.Errorf("初始化MinIO失败: %w", err)
		}
		s.Objects = s.MinIO
	}
	log.Printf("对象存储初始化成功, provider=%s", cfg.ObjectStorage.Provider)

	s.MySQL, err = NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("初始化MySQL失败: %w", err)
	}

	if cfg.Redis.Address != "" {
		s.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			log.Printf("警告: 初始化Redis失败, 上传去重将被禁用: %v", err)
			s.Redis = nil
		}
	} else {
		log.Printf("Redis未配置, 跳过初始化.")
	}

	if cfg.RabbitMQ.URL != "" {
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			log.Printf("警告: 初始化RabbitMQ失败, 候选人事件将保留在outbox中: %v", err)
			s.RabbitMQ = nil
		} else if err := s.RabbitMQ.EnsureCandidateTopology(); err != nil {
			log.Printf("警告: 声明候选人事件拓扑失败: %v", err)
		}
	}

	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Printf("关闭RabbitMQ连接失败: %v", err)
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			log.Printf("关闭MySQL连接失败: %v", err)
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Printf("关闭Redis连接失败: %v", err)
		}
	}
}
