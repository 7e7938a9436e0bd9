package parser

import (
	"fmt"
	"strings"
)

// HeaderNotFoundError 没有任何一行包含姓名列标记
type HeaderNotFoundError struct {
	Markers     []string
	ScannedRows int
}

func (e *HeaderNotFoundError) Error() string {
	return fmt.Sprintf("header row not found: no cell contains %s within %d rows",
		strings.Join(e.Markers, "/"), e.ScannedRows)
}

// MalformedIdentityError 学号或学年/班/号无法解析
type MalformedIdentityError struct {
	RowNo  int
	Column string
	Value  string
	Reason string
}

func (e *MalformedIdentityError) Error() string {
	if e.RowNo == 0 {
		return fmt.Sprintf("malformed identity: %s", e.Reason)
	}
	return fmt.Sprintf("malformed identity at row %d column %q (value %q): %s", e.RowNo, e.Column, e.Value, e.Reason)
}

// EmptyCategoryError 找不到可用的记载内容列
type EmptyCategoryError struct {
	Label  string
	Reason string
}

func (e *EmptyCategoryError) Error() string {
	return fmt.Sprintf("no content column for %q: %s", e.Label, e.Reason)
}
