package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`[\s_]+`)

// NormalizeColumnName 规范化列名：去空白与下划线并转小写
// "Document Number" / "document_number" / " DOCUMENT\nNUMBER" 均得到 "documentnumber"
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(name)
	name = whitespaceRe.ReplaceAllString(name, "")
	return strings.ToLower(name)
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

// MatchPattern 使用正则匹配（整列名匹配）
func MatchPattern(text, pattern string) bool {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// Truthy 旗标列取值
func Truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "t":
		return true
	}
	return false
}

// NormalizeSheetNumber Excel 中以数字存储的页号会丢失前导零，补齐为两位
func NormalizeSheetNumber(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 9 || len(s) != 1 {
		return s
	}
	return "0" + s
}
