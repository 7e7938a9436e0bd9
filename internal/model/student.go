package model

import "fmt"

// Identity 学生身份（学年/班/号/姓名）
//
// 名册内 (Grade, Class, Number) 唯一；连接时四个字段一起比较。
type Identity struct {
	Grade  int    `json:"grade"`
	Class  int    `json:"class"`
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Key 返回用于分组/连接的完整键
func (i Identity) Key() string {
	return fmt.Sprintf("%d|%d|%d|%s", i.Grade, i.Class, i.Number, i.Name)
}

// SeatKey 返回 (学年, 班, 号) 组成的键，不含姓名
func (i Identity) SeatKey() string {
	return fmt.Sprintf("%d|%d|%d", i.Grade, i.Class, i.Number)
}

// Less 按 学年 → 班 → 号 升序比较
func (i Identity) Less(o Identity) bool {
	if i.Grade != o.Grade {
		return i.Grade < o.Grade
	}
	if i.Class != o.Class {
		return i.Class < o.Class
	}
	return i.Number < o.Number
}

// ClassLabel 形如 "3-1" 的班级标签
func (i Identity) ClassLabel() string {
	return fmt.Sprintf("%d-%d", i.Grade, i.Class)
}

// Roster 名册（权威学生名单）
type Roster struct {
	Source     string     `json:"source"`
	Identities []Identity `json:"identities"`
}

// Len 名册人数
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Identities)
}
