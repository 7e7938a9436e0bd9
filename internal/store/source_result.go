package store

import (
	"encoding/json"
	"fmt"
)

// SourceResult 单个来源的处理结果（用于追溯失败原因）
type SourceResult struct {
	RunID        string   `json:"runId"`
	Source       string   `json:"source"`
	Label        string   `json:"label"`
	IdentityMode string   `json:"identityMode,omitempty"`
	HeaderRow    int      `json:"headerRow"`
	Columns      []string `json:"columns,omitempty"`
	Records      int      `json:"records"`
	Status       string   `json:"status"`
	Stage        string   `json:"stage,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
	DurationMS   int64    `json:"durationMs"`
}

// InsertSourceResult 写入来源结果
func (s *Store) InsertSourceResult(r SourceResult) error {
	_, err := s.db.Exec(`
		INSERT INTO source_results (
			run_id, source, label, identity_mode, header_row, columns_json,
			records, status, stage, error_message, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.RunID, r.Source, r.Label, r.IdentityMode, r.HeaderRow, BuildColumnsJSON(r.Columns),
		r.Records, r.Status, r.Stage, r.ErrorMessage, r.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to insert source result: %w", err)
	}
	return nil
}

// ListSourceResults 按写入顺序列出某次运行的来源结果
func (s *Store) ListSourceResults(runID string) ([]SourceResult, error) {
	rows, err := s.db.Query(`
		SELECT run_id, source, label, identity_mode, header_row, columns_json,
			records, status, stage, error_message, duration_ms
		FROM source_results WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list source results: %w", err)
	}
	defer rows.Close()

	out := []SourceResult{}
	for rows.Next() {
		var (
			r       SourceResult
			columns string
		)
		if err := rows.Scan(&r.RunID, &r.Source, &r.Label, &r.IdentityMode, &r.HeaderRow, &columns,
			&r.Records, &r.Status, &r.Stage, &r.ErrorMessage, &r.DurationMS); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(columns), &r.Columns)
		out = append(out, r)
	}
	return out, rows.Err()
}

// BuildColumnsJSON 将列名序列化为 JSON
func BuildColumnsJSON(columns []string) string {
	if columns == nil {
		return "[]"
	}
	b, err := json.Marshal(columns)
	if err != nil {
		return "[]"
	}
	return string(b)
}
