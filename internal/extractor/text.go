package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// splitLines 按 "\n" 切分文本，保留空行以维持行号
func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// toLower 逐个字符转小写，保证字符数量不变，便于在原文中按字符位置截取
func toLower(s string) string {
	return strings.Map(unicode.ToLower, s)
}

// containsAny 判断已转小写的 s 是否包含任意关键字
func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// runeLen 返回字符数
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// truncateRunes 截取前 n 个字符
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if runeLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// runeIndex 返回 needle 在 lower 中首次出现的字符位置，未找到返回 -1
func runeIndex(lower, needle string) int {
	idx := strings.Index(lower, needle)
	if idx < 0 {
		return -1
	}
	return utf8.RuneCountInString(lower[:idx])
}

// runeWindow 返回 s 中从字符位置 start 开始、最多 size 个字符的片段
func runeWindow(s string, start, size int) string {
	runes := []rune(s)
	if start < 0 || start >= len(runes) {
		return ""
	}
	end := start + size
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end])
}

// titleCase 将每段连续字母的首字母大写、其余小写，非字母字符作为分隔
// 例如 "node.js" -> "Node.Js"，"scikit-learn" -> "Scikit-Learn"
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
