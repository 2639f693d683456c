package utils

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// StringPtr 返回字符串的指针，空白字符串返回 nil
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// TimePtr returns a pointer to a time.Time object
func TimePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// IntPtr returns a pointer to an int
func IntPtr(i int) *int {
	return &i
}

// StringValue 解引用字符串指针，nil 返回空串
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CalculateMD5 computes the MD5 hash of a byte slice.
func CalculateMD5(data []byte) string {
	hasher := md5.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}
