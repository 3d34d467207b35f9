package models

import "time"

// File — запись реестра о зафиксированной загрузке.
type File struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Size        uint64    `json:"size"`
	Chunks      uint      `json:"chunks"`
	Mode        Mode      `json:"mode"`
	CompletedAt time.Time `json:"completed_at"`
}

