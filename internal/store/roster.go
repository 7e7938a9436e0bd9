package store

import (
	"fmt"

	"github.com/suribanpo/excelprocess/internal/model"
)

// ReplaceRoster 用新名册整体替换旧名册（保持上传时的行顺序）
func (s *Store) ReplaceRoster(roster *model.Roster) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM roster_students"); err != nil {
		return fmt.Errorf("failed to clear roster: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO roster_students (seq, grade, class, number, name, source)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare roster insert: %w", err)
	}
	defer stmt.Close()

	for i, id := range roster.Identities {
		if _, err := stmt.Exec(i, id.Grade, id.Class, id.Number, id.Name, roster.Source); err != nil {
			return fmt.Errorf("failed to insert roster row %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// LoadRoster 读取名册；未上传时返回 nil
func (s *Store) LoadRoster() (*model.Roster, error) {
	rows, err := s.db.Query("SELECT grade, class, number, name, source FROM roster_students ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	defer rows.Close()

	var roster *model.Roster
	for rows.Next() {
		var (
			id     model.Identity
			source string
		)
		if err := rows.Scan(&id.Grade, &id.Class, &id.Number, &id.Name, &source); err != nil {
			return nil, err
		}
		if roster == nil {
			roster = &model.Roster{Source: source}
		}
		roster.Identities = append(roster.Identities, id)
	}
	return roster, rows.Err()
}

// ClearRoster 删除名册
func (s *Store) ClearRoster() error {
	if _, err := s.db.Exec("DELETE FROM roster_students"); err != nil {
		return fmt.Errorf("failed to clear roster: %w", err)
	}
	return nil
}
