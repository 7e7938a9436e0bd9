package pivot

import "github.com/suribanpo/excelprocess/internal/model"

// Aggregate 按输入顺序拼接各来源的记录，不做去重
func Aggregate(batches ...[]model.Record) *model.LongTable {
	total := 0
	for _, b := range batches {
		total += len(b)
	}
	out := &model.LongTable{Records: make([]model.Record, 0, total)}
	for _, b := range batches {
		out.Records = append(out.Records, b...)
	}
	return out
}
