package qa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf16"

	"resume-qa-go/internal/types"
)

const promptTemplate = `Based on the following candidate information, answer the question accurately and concisely.

Candidate Information:
{context}

Question: {question}

Answer:`

// BuildContext 将候选人档案渲染为 "Label: value" 行，空字段不输出
func BuildContext(profile types.CandidateProfile) string {
	parts := make([]string, 0, 7)

	if profile.Introduction != "" {
		parts = append(parts, "Introduction: "+profile.Introduction)
	}
	if !profile.Education.IsEmpty() {
		parts = append(parts, "Education: "+displayJSON(profile.Education))
	}
	if !profile.Experience.IsEmpty() {
		parts = append(parts, "Experience: "+displayJSON(profile.Experience))
	}
	if len(profile.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(profile.Skills, ", "))
	}
	if len(profile.Certifications) > 0 {
		parts = append(parts, "Certifications: "+strings.Join(profile.Certifications, ", "))
	}
	if len(profile.Projects) > 0 {
		parts = append(parts, "Projects: "+strings.Join(profile.Projects, ", "))
	}
	if len(profile.Hobbies) > 0 {
		parts = append(parts, "Hobbies: "+strings.Join(profile.Hobbies, ", "))
	}

	return strings.Join(parts, "\n")
}

// BuildPrompt 用固定模板包装档案上下文与原始问题
func BuildPrompt(profile types.CandidateProfile, question string) string {
	r := strings.NewReplacer("{context}", BuildContext(profile), "{question}", question)
	return r.Replace(promptTemplate)
}

// compactJSON 序列化为紧凑 JSON，不转义 HTML 字符
func compactJSON(v interface{}) string {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}

// displayJSON 输出 `{"key": value, "key": value}` 形式，字符串中的非 ASCII 字符转义为 \uXXXX
func displayJSON(v interface{}) string {
	compact := compactJSON(v)

	var b strings.Builder
	b.Grow(len(compact) + 8)
	inString, escaped := false, false
	for _, r := range compact {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			if r > 0x7f {
				writeUnicodeEscape(&b, r)
				continue
			}
			b.WriteRune(r)
			continue
		}

		b.WriteRune(r)
		switch r {
		case '"':
			inString = true
		case ':', ',':
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// writeUnicodeEscape 写入小写十六进制的 \uXXXX，BMP 之外的字符拆成代理对
func writeUnicodeEscape(b *strings.Builder, r rune) {
	if r > 0xffff {
		hi, lo := utf16.EncodeRune(r)
		fmt.Fprintf(b, "\\u%04x\\u%04x", hi, lo)
		return
	}
	fmt.Fprintf(b, "\\u%04x", r)
}
