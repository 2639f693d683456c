package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat 文件扩展名不是 pdf 或 docx
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrExtractionFailure 文档字节无法解析
	ErrExtractionFailure = errors.New("document text extraction failed")
)

// ExtractionError 文本提取失败的详细信息
type ExtractionError struct {
	Format string
	URI    string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.URI != "" {
		return fmt.Sprintf("%s (格式:%s, URI:%s): %v", ErrExtractionFailure, e.Format, e.URI, e.Err)
	}
	return fmt.Sprintf("%s (格式:%s): %v", ErrExtractionFailure, e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrExtractionFailure) 成立
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailure
}
