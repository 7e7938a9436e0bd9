package exporter

import (
	"strings"
	"time"
)

// Kind 输出文件类型
type Kind string

const (
	KindMerged  Kind = "merged"  // 所有来源各占一个工作表
	KindLong    Kind = "long"    // 长表
	KindPivot   Kind = "pivot"   // 领域宽表
	KindFormula Kind = "formula" // 宽表 + 합본/바이트 公式
	KindClass   Kind = "class"   // 按班拆分
)

const filePrefix = "창체"

// OutputFileName 输出文件名，末尾带时间戳避免覆盖
func OutputFileName(category string, kind Kind, now time.Time) string {
	var base string
	switch kind {
	case KindMerged:
		base = filePrefix + "_특기사항_모든파일을_통합문서로"
	case KindLong:
		base = filePrefix + "_특기사항_하나의시트로"
	case KindPivot:
		base = category + "_특기사항_통합"
	case KindFormula:
		base = category + "_특기사항_통합_엑셀수식포함"
	case KindClass:
		base = category + "_특기사항_반별"
	default:
		base = category + "_" + string(kind)
	}
	base = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, base)
	return base + "_" + now.Format("20060102_150405") + ".xlsx"
}
