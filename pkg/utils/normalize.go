package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// 去除变音符号: NFD 分解后丢弃所有 combining marks
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey 规范化记忆表键
// 小写、去变音符号、标点折叠为空格、连续空白压缩为单个空格
// 所有规范化查找和启发式整词匹配都基于这一形式
func NormalizeKey(s string) string {
	folded, _, err := transform.String(deaccent, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		default:
			// 空白和标点都视作分隔符
			pendingSpace = true
		}
	}
	return b.String()
}

// ContainsWholeWord 判断 text 中是否出现 word 的整词匹配 (大小写/变音不敏感)
// 规范化把所有分隔符折叠成空格，因此词边界检查退化为空格包围检查
func ContainsWholeWord(text, word string) bool {
	nw := NormalizeKey(word)
	if nw == "" {
		return false
	}
	nt := " " + NormalizeKey(text) + " "
	return strings.Contains(nt, " "+nw+" ")
}

// FormatProperName 品牌/型号名称的首字母大写格式化
// 长度不超过 4 的全大写单词视为缩写，保持原样
func FormatProperName(name string) string {
	words := strings.Fields(name)
	for i, word := range words {
		if word == strings.ToUpper(word) && len([]rune(word)) <= 4 {
			continue // 缩写保持大写
		}
		r := []rune(strings.ToLower(word))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
