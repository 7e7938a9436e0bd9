package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RunLog 一次运行的汇总记录
type RunLog struct {
	ID              string     `json:"id"`
	TotalSources    int        `json:"totalSources"`
	ImportedSources int        `json:"importedSources"`
	FailedSources   int        `json:"failedSources"`
	TotalRecords    int        `json:"totalRecords"`
	Categories      int        `json:"categories"`
	Reconciled      bool       `json:"reconciled"`
	RosterSource    string     `json:"rosterSource"`
	Status          string     `json:"status"` // processing/success/partial/failed
	ErrorMessage    string     `json:"errorMessage,omitempty"`
	StartedAt       time.Time  `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// ErrRunNotFound 运行记录不存在
var ErrRunNotFound = errors.New("run not found")

// CreateRunLog 创建运行日志，状态为 processing
func (s *Store) CreateRunLog(id string, totalSources int, rosterSource string) error {
	_, err := s.db.Exec(`
		INSERT INTO run_logs (id, total_sources, roster_source, status)
		VALUES (?, ?, ?, 'processing')
	`, id, totalSources, rosterSource)
	if err != nil {
		return fmt.Errorf("failed to create run log: %w", err)
	}
	return nil
}

// FinishRunLog 写入运行结果
func (s *Store) FinishRunLog(log RunLog) error {
	res, err := s.db.Exec(`
		UPDATE run_logs SET
			imported_sources = ?,
			failed_sources = ?,
			total_records = ?,
			categories = ?,
			reconciled = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, log.ImportedSources, log.FailedSources, log.TotalRecords, log.Categories,
		log.Reconciled, log.Status, log.ErrorMessage, log.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run log: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, log.ID)
	}
	return nil
}

// GetRunLog 读取运行日志
func (s *Store) GetRunLog(id string) (*RunLog, error) {
	var (
		log       RunLog
		completed sql.NullTime
	)
	err := s.db.QueryRow(`
		SELECT id, total_sources, imported_sources, failed_sources, total_records,
			categories, reconciled, roster_source, status, error_message, started_at, completed_at
		FROM run_logs WHERE id = ?
	`, id).Scan(&log.ID, &log.TotalSources, &log.ImportedSources, &log.FailedSources, &log.TotalRecords,
		&log.Categories, &log.Reconciled, &log.RosterSource, &log.Status, &log.ErrorMessage, &log.StartedAt, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run log: %w", err)
	}
	if completed.Valid {
		log.CompletedAt = &completed.Time
	}
	return &log, nil
}
