package pivot

import "fmt"

// DuplicateRosterKeyError 名册中 (学年, 班, 号) 重复（严格模式）
type DuplicateRosterKeyError struct {
	Grade  int
	Class  int
	Number int
	Names  []string
}

func (e *DuplicateRosterKeyError) Error() string {
	return fmt.Sprintf("duplicate roster key %d-%d-%d (%v)", e.Grade, e.Class, e.Number, e.Names)
}
