// Package uploadproto описывает протокол HTTP-загрузки и раскладку частичных файлов на диске.
package uploadproto

// Параметры запроса загрузки.
const (
	ParamName     = "name"
	ParamChunk    = "chunk"
	ParamChunks   = "chunks"
	ParamFilename = "filename"

	HeaderFileName    = "X-File-Name"
	HeaderFilenameAlt = "X-Filename"
	HeaderChecksum    = "X-Checksum-Sha256"
)

// Раскладка на диске; совместима с другими реализациями, читающими те же каталоги.
const (
	// PartSuffix — незавершённый файл: <target>.part.
	PartSuffix = ".part"
	// ChunkDirSuffix — каталог чанков: <target>.dir.part/.
	ChunkDirSuffix = ".dir.part"
	// ChunkFileFormat — имя файла чанка внутри каталога: <index>.part.
	ChunkFileFormat = "%d.part"
	// LocksDir — служебный каталог файловых блокировок загрузок.
	LocksDir = ".locks"
	// LockSuffix — расширение файла блокировки.
	LockSuffix = ".lock"
)
