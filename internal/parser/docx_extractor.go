package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const wordMLNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DocxTextExtractor 从 docx 文档中按段落提取文本
type DocxTextExtractor struct{}

// NewDocxTextExtractor 创建 docx 文本提取器
func NewDocxTextExtractor() *DocxTextExtractor {
	return &DocxTextExtractor{}
}

// ExtractParagraphs 返回 word/document.xml 中按文档顺序排列的段落文本
func (d *DocxTextExtractor) ExtractParagraphs(data []byte) ([]string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("读取docx失败: %w", err)
	}
	defer doc.Close()

	return paragraphsFromDocumentXML(doc.Editable().GetContent())
}

// paragraphsFromDocumentXML 遍历 w:p 元素，拼接其中 w:t 文本，w:tab 与 w:br 分别转为制表符和换行
func paragraphsFromDocumentXML(content string) ([]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	var (
		paragraphs []string
		current    strings.Builder
		depth      int
		inText     bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解析document.xml失败: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordMLNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "t":
				inText = depth > 0
			case "tab":
				if depth > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordMLNamespace {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}
