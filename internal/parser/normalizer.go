package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"resume-qa-go/internal/types"
)

// PDFPageExtractor 按页提取 PDF 文本
type PDFPageExtractor interface {
	ExtractPages(ctx context.Context, reader io.Reader, uri string) ([]string, error)
}

// DocxParagraphExtractor 按段落提取 docx 文本
type DocxParagraphExtractor interface {
	ExtractParagraphs(data []byte) ([]string, error)
}

var (
	_ PDFPageExtractor       = (*EinoPDFTextExtractor)(nil)
	_ DocxParagraphExtractor = (*DocxTextExtractor)(nil)
)

// Normalizer 将原始文档字节转换为单个纯文本字符串，保留换行作为字段边界
type Normalizer struct {
	pdf  PDFPageExtractor
	docx DocxParagraphExtractor
}

// NewNormalizer 创建文本规范化器
func NewNormalizer(pdf PDFPageExtractor, docx DocxParagraphExtractor) *Normalizer {
	if docx == nil {
		docx = NewDocxTextExtractor()
	}
	return &Normalizer{pdf: pdf, docx: docx}
}

// FormatFromFilename 根据扩展名（最后一个点之后的部分，不区分大小写）确定文档格式
func FormatFromFilename(filename string) (types.DocumentFormat, error) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
	return ParseFormat(filename[idx+1:])
}

// ParseFormat 将格式标签解析为 DocumentFormat
func ParseFormat(tag string) (types.DocumentFormat, error) {
	switch types.DocumentFormat(strings.ToLower(strings.TrimSpace(tag))) {
	case types.FormatPDF:
		return types.FormatPDF, nil
	case types.FormatDOCX:
		return types.FormatDOCX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, tag)
	}
}

// Normalize 提取文档文本。pdf 各页之间、docx 各段落之间以换行分隔，结果去除首尾空白
func (n *Normalizer) Normalize(ctx context.Context, data []byte, format types.DocumentFormat) (string, error) {
	var (
		units []string
		err   error
	)

	switch format {
	case types.FormatPDF:
		if n.pdf == nil {
			return "", &ExtractionError{Format: string(format), Err: fmt.Errorf("PDF提取器未初始化")}
		}
		units, err = n.pdf.ExtractPages(ctx, bytes.NewReader(data), "upload.pdf")
	case types.FormatDOCX:
		units, err = n.docx.ExtractParagraphs(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err != nil {
		return "", &ExtractionError{Format: string(format), Err: err}
	}

	return strings.TrimSpace(strings.Join(units, "\n")), nil
}
