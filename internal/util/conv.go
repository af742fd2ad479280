package util

import (
	"strconv"
	"strings"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ClampLimit 把分页参数约束到 [1, MaxPageLimit]，非法值回落到默认值
func ClampLimit(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return DefaultPageLimit
	}
	if n > MaxPageLimit {
		return MaxPageLimit
	}
	return n
}

func ParseOffset(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ContainsPattern 生成 LIKE 子串匹配模式，用户输入中的 % 和 _ 按字面量处理
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
