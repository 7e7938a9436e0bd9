package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeText NFC 规范化（macOS 上传的文件名/内容常为 NFD）
func NormalizeText(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// NormalizeColumnName 规范化列名：NFC，去除所有空白
func NormalizeColumnName(name string) string {
	name = NormalizeText(strings.TrimSpace(name))
	return whitespaceRe.ReplaceAllString(name, "")
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// ExtractDigitRun 提取第一段连续数字，如 "3학년" → 3
func ExtractDigitRun(s string) (int, bool) {
	start := -1
	end := len(s)
	for i := 0; i < len(s); i++ {
		isDigit := s[i] >= '0' && s[i] <= '9'
		if start < 0 {
			if isDigit {
				start = i
			}
			continue
		}
		if !isDigit {
			end = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

// SplitLabel 按第一个下划线拆分为 领域/细分领域
// "자율활동_활동명1" → ("자율활동", "활동명1")；无下划线时细分领域为空
func SplitLabel(label string) (category, subcategory string) {
	category, subcategory, _ = strings.Cut(label, "_")
	return category, subcategory
}

// TrimContent 截掉最后一个句号之后的内容，并在句号后补一个空格
// 不含句号时原样返回
func TrimContent(s string) string {
	idx := strings.LastIndex(s, ".")
	if idx < 0 {
		return s
	}
	return s[:idx+1] + " "
}

// RuneLen 按字符（非字节）计算长度
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// isBlankRow 整行为空
func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
