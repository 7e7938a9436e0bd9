package store

import (
	"database/sql"
	"errors"
	"fmt"
)

const keyLastRunID = "last_run_id"

// ErrSettingNotFound 设置项不存在
var ErrSettingNotFound = errors.New("setting not found")

// GetSetting 获取设置项
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	return value, err
}

// SetSetting 写入设置项
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// GetAllSettings 获取全部设置项
func (s *Store) GetAllSettings() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}

// LastRunID 最近一次完成的运行；没有时返回 ""
func (s *Store) LastRunID() (string, error) {
	id, err := s.GetSetting(keyLastRunID)
	if errors.Is(err, ErrSettingNotFound) {
		return "", nil
	}
	return id, err
}

// SetLastRunID 记录最近一次完成的运行
func (s *Store) SetLastRunID(id string) error {
	return s.SetSetting(keyLastRunID, id)
}
