package processor

import (
	"context"

	"resume-qa-go/internal/extractor"
	"resume-qa-go/internal/parser"
	"resume-qa-go/internal/qa"
	"resume-qa-go/internal/storage"
	"resume-qa-go/internal/types"
)

// TextNormalizer 将原始文档转换为纯文本
type TextNormalizer interface {
	Normalize(ctx context.Context, data []byte, format types.DocumentFormat) (string, error)
}

// ProfileAssembler 从纯文本组装候选人档案
type ProfileAssembler interface {
	Assemble(text string) extractor.Extraction
}

// QuestionAnswerer 针对候选人档案回答问题
type QuestionAnswerer interface {
	Ask(ctx context.Context, profile types.CandidateProfile, question string) qa.Answer
}

// DedupCache 基于文件 MD5 的上传去重缓存
type DedupCache interface {
	// LookupCandidateByMD5 查询 MD5 对应的候选人ID，未命中返回空串
	LookupCandidateByMD5(ctx context.Context, md5Hex string) (string, error)
	// RememberCandidateMD5 记录 MD5 到候选人ID 的映射
	RememberCandidateMD5(ctx context.Context, md5Hex, candidateID string) error
	// ForgetCandidateMD5 删除指向已不存在候选人的映射
	ForgetCandidateMD5(ctx context.Context, md5Hex string) error
	// AcquireUploadLock 获取同一文件的上传锁，未获取到返回空串
	AcquireUploadLock(ctx context.Context, md5Hex string) (string, error)
	// ReleaseUploadLock 释放上传锁
	ReleaseUploadLock(ctx context.Context, md5Hex, lockValue string) error
}

var (
	_ TextNormalizer   = (*parser.Normalizer)(nil)
	_ ProfileAssembler = (*extractor.Assembler)(nil)
	_ QuestionAnswerer = (*qa.Service)(nil)
	_ DedupCache       = (*storage.Redis)(nil)
)
