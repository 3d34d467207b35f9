package models

// UploadResult возвращается вызывающему после каждого запроса.
// Chunk заполнен только для промежуточных (не последних) чанков.
type UploadResult struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Chunk *uint  `json:"chunk,omitempty"`
	Size  uint64 `json:"size"`
}

// Complete сообщает, что файл зафиксирован по финальному пути.
func (r UploadResult) Complete() bool {
	return r.Chunk == nil
}

// Mode — способ накопления чанков.
type Mode string

const (
	ModeSingle  Mode = "single"
	ModeAppend  Mode = "append"
	ModeSideDir Mode = "dir"
)
