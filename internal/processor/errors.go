package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrEmptyFile        = errors.New("上传文件为空")
	ErrUploadInProgress = errors.New("相同文件正在处理中")
	ErrEmptyQuestion    = errors.New("问题不能为空")
	ErrIDGeneration     = errors.New("生成候选人ID失败")
)

// CandidateError 包含详细错误信息的自定义错误
type CandidateError struct {
	CandidateID string
	Op          string
	BaseErr     error
	Detail      string
}

func (e *CandidateError) Error() string {
	if e.CandidateID == "" {
		if e.Detail != "" {
			return fmt.Sprintf("%s (操作:%s): %s", e.BaseErr, e.Op, e.Detail)
		}
		return fmt.Sprintf("%s (操作:%s)", e.BaseErr, e.Op)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 候选人:%s): %s", e.BaseErr, e.Op, e.CandidateID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 候选人:%s)", e.BaseErr, e.Op, e.CandidateID)
}

func (e *CandidateError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *CandidateError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// newCandidateError 构造处理错误，BaseErr 保留下层错误链
func newCandidateError(op, candidateID string, base error, detail string) error {
	return &CandidateError{
		CandidateID: candidateID,
		Op:          op,
		BaseErr:     base,
		Detail:      detail,
	}
}
