package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStorageFailure 对象存储操作失败
	ErrStorageFailure = errors.New("对象存储操作失败")
	// ErrStoragePermissionDenied 对象存储拒绝访问
	ErrStoragePermissionDenied = errors.New("对象存储权限不足")
	// ErrPersistenceFailure 文档存储操作失败
	ErrPersistenceFailure = errors.New("候选人记录持久化失败")
	// ErrCandidateNotFound 候选人不存在
	ErrCandidateNotFound = errors.New("候选人不存在")
	// ErrDuplicateCandidate 候选人ID冲突
	ErrDuplicateCandidate = errors.New("候选人记录已存在")
)

// permissionMarkers 出现在错误信息中即视为权限问题
var permissionMarkers = []string{
	"row-level security",
	"unauthorized",
	"access denied",
	"accessdenied",
	"403",
}

// isPermissionMessage 根据错误文本判断是否为权限问题
func isPermissionMessage(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range permissionMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// classifyObjectError 将对象存储错误归类为权限错误或一般存储错误
func classifyObjectError(op, key string, err error, statusCode int) error {
	if statusCode == 403 || isPermissionMessage(err) {
		return fmt.Errorf("%w: %s %s: %v", ErrStoragePermissionDenied, op, key, err)
	}
	return fmt.Errorf("%w: %s %s: %v", ErrStorageFailure, op, key, err)
}
