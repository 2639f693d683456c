package parser

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// samplePDFDirs 可能存放样例简历PDF的目录
var samplePDFDirs = []string{"testdata", "../testdata", "../../testdata"}

// findSamplePDF 查找一个样例PDF，找不到时返回空串
func findSamplePDF() string {
	for _, dir := range samplePDFDirs {
		matches, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
		if err == nil && len(matches) > 0 {
			return matches[0]
		}
	}
	return ""
}

func TestNewEinoPDFTextExtractor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err, "创建PDF提取器不应返回错误")
	require.NotNil(t, extractor.parser, "PDF提取器内部的parser不应为nil")
	require.NotNil(t, extractor.logger, "PDF提取器应该有默认的logger")
	assert.Equal(t, 30*time.Second, extractor.timeout, "默认超时应为30秒")

	customLogger := log.New(os.Stdout, "[测试PDF提取器] ", log.LstdFlags)
	configured, err := NewEinoPDFTextExtractor(ctx,
		WithEinoLogger(customLogger),
		WithEinoTimeout(3*time.Second),
	)
	require.NoError(t, err)
	assert.Same(t, customLogger, configured.logger, "应该使用提供的自定义logger")
	assert.Equal(t, 3*time.Second, configured.timeout)

	// 非正数超时保持默认值
	unchanged, err := NewEinoPDFTextExtractor(ctx, WithEinoTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, unchanged.timeout)
}

func TestExtractPages_RejectsNonPDF(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logBuf := new(bytes.Buffer)
	extractor, err := NewEinoPDFTextExtractor(ctx, WithEinoLogger(log.New(logBuf, "", 0)))
	require.NoError(t, err)

	pages, err := extractor.ExtractPages(ctx, strings.NewReader("plain text, definitely not a pdf"), "notes.pdf")
	require.Error(t, err, "非PDF内容应返回错误")
	assert.Nil(t, pages)
	assert.Contains(t, err.Error(), "notes.pdf", "错误信息应包含URI")
	assert.Contains(t, logBuf.String(), "从Reader提取PDF失败", "失败应写入日志")
}

func TestExtractPages_EmptyReader(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	extractor, err := NewEinoPDFTextExtractor(ctx, WithEinoLogger(log.New(new(bytes.Buffer), "", 0)))
	require.NoError(t, err)

	_, err = extractor.ExtractPages(ctx, bytes.NewReader(nil), "empty.pdf")
	assert.Error(t, err, "空内容应返回错误")
}

func TestExtractPages_SamplePDF(t *testing.T) {
	path := findSamplePDF()
	if path == "" {
		t.Skip("找不到测试PDF文件，跳过测试")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err, "读取样例PDF失败")

	pages, err := extractor.ExtractPages(ctx, bytes.NewReader(data), filepath.Base(path))
	require.NoError(t, err, "PDF提取不应返回错误")
	require.NotEmpty(t, pages, "至少应提取出一页")

	total := 0
	for _, page := range pages {
		total += len(strings.TrimSpace(page))
	}
	assert.Positive(t, total, "提取的文本内容不应为空")
	t.Logf("从%s提取了%d页, %d个字符", path, len(pages), total)
}
