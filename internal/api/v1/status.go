package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusResponse 系统状态
type StatusResponse struct {
	Version        string `json:"version"`
	RosterLoaded   bool   `json:"rosterLoaded"`
	RosterSource   string `json:"rosterSource,omitempty"`
	RosterStudents int    `json:"rosterStudents"`
	LastRunID      string `json:"lastRunId,omitempty"`
	LastRunStatus  string `json:"lastRunStatus,omitempty"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{Version: h.version}

	if roster, err := h.store.LoadRoster(); err == nil && roster != nil {
		resp.RosterLoaded = true
		resp.RosterSource = roster.Source
		resp.RosterStudents = roster.Len()
	}
	if id, err := h.store.LastRunID(); err == nil && id != "" {
		resp.LastRunID = id
		if log, err := h.store.GetRunLog(id); err == nil {
			resp.LastRunStatus = log.Status
		}
	}
	c.JSON(http.StatusOK, resp)
}
