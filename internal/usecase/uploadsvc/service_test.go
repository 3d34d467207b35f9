package uploadsvc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/uploadproto"
)

func bytesSource(b []byte, name string) Source {
	return BodySource(io.NopCloser(bytes.NewReader(b)), name)
}

func mustOptions(t *testing.T, dir string, opts ...Option) Options {
	t.Helper()
	o, err := NewOptions(dir, opts...)
	require.NoError(t, err)
	return o
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func splitPayload(b []byte, n int) [][]byte {
	size := (len(b) + n - 1) / n
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		lo, hi := i*size, (i+1)*size
		if hi > len(b) {
			hi = len(b)
		}
		out = append(out, b[lo:hi])
	}
	return out
}

func Test_Handle_SingleShot(t *testing.T) {
	dir := t.TempDir()
	svc := New(Deps{})
	payload := bytes.Repeat([]byte("0123456789abcdef"), 1000)

	res, err := svc.Handle(context.Background(), mustOptions(t, dir, WithFileName("my file (1).jpg")), bytesSource(payload, ""))
	require.NoError(t, err)

	assert.True(t, res.Complete())
	assert.Equal(t, "my-file-1.jpg", res.Name)
	assert.Equal(t, filepath.Join(dir, "my-file-1.jpg"), res.Path)
	assert.Equal(t, uint64(len(payload)), res.Size)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.NoFileExists(t, res.Path+uploadproto.PartSuffix)
}

func Test_Handle_NameFromSource(t *testing.T) {
	dir := t.TempDir()
	res, err := New(Deps{}).Handle(context.Background(), mustOptions(t, dir), bytesSource([]byte("x"), "declared.txt"))
	require.NoError(t, err)
	assert.Equal(t, "declared.txt", res.Name)

	_, err = New(Deps{}).Handle(context.Background(), mustOptions(t, dir), bytesSource([]byte("x"), ""))
	assert.True(t, errors.Is(err, models.ErrInput))
}

func Test_Handle_Overwrites(t *testing.T) {
	dir := t.TempDir()
	svc := New(Deps{})
	o := mustOptions(t, dir, WithFileName("same.txt"))

	_, err := svc.Handle(context.Background(), o, bytesSource([]byte("first version"), ""))
	require.NoError(t, err)
	res, err := svc.Handle(context.Background(), o, bytesSource([]byte("second"), ""))
	require.NoError(t, err)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func Test_Handle_ExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	svc := New(Deps{})

	_, err := svc.Handle(context.Background(),
		mustOptions(t, dir, WithFileName("photo.GIF"), WithAllowedExtensions("jpg", "jpeg", "png")),
		bytesSource([]byte("gif bytes"), ""))
	require.Error(t, err)
	assert.Equal(t, models.ErrType, models.KindOf(err))
	assert.Empty(t, dirNames(t, dir))

	res, err := svc.Handle(context.Background(),
		mustOptions(t, dir, WithFileName("photo.JPG"), WithAllowedExtensionList("jpg, jpeg,png")),
		bytesSource([]byte("jpg bytes"), ""))
	require.NoError(t, err)
	assert.Equal(t, "photo.JPG", res.Name)
	assert.FileExists(t, res.Path)
}

func Test_Handle_AppendChunks(t *testing.T) {
	dir := t.TempDir()
	svc := New(Deps{})
	payload := bytes.Repeat([]byte{0xA1, 0xB2, 0xC3}, 5000)
	parts := splitPayload(payload, 3)

	var written uint64
	for i, p := range parts {
		o := mustOptions(t, dir, WithFileName("video.bin"), WithChunk(uint(i), 3), WithAppendChunks(true))
		res, err := svc.Handle(context.Background(), o, bytesSource(p, ""))
		require.NoError(t, err)
		written += uint64(len(p))

		if i < 2 {
			require.False(t, res.Complete(), "chunk %d must not finish the upload", i)
			assert.Equal(t, uint(i), *res.Chunk)
			assert.Equal(t, written, res.Size)
			assert.NoFileExists(t, filepath.Join(dir, "video.bin"))
			continue
		}
		require.True(t, res.Complete())
		assert.Equal(t, uint64(len(payload)), res.Size)
	}

	got, err := os.ReadFile(filepath.Join(dir, "video.bin"))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, []string{"video.bin"}, dirNames(t, dir))
}

func Test_Handle_AppendChunkZeroRestarts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt.part"), []byte("leftover from an aborted upload"), 0o644))

	svc := New(Deps{})
	for i, p := range []string{"hello ", "world"} {
		o := mustOptions(t, dir, WithFileName("doc.txt"), WithChunk(uint(i), 2), WithAppendChunks(true))
		_, err := svc.Handle(context.Background(), o, bytesSource([]byte(p), ""))
		require.NoError(t, err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "doc.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func Test_Handle_SideDirOutOfOrder(t *testing.T) {
	dir := t.TempDir()
	svc := New(Deps{})
	payload := []byte(strings.Repeat("side-directory chunked upload ", 400))
	parts := splitPayload(payload, 3)

	order := []int{2, 0, 1}
	for n, idx := range order {
		o := mustOptions(t, dir, WithFileName("archive.tar"), WithChunk(uint(idx), 3))
		res, err := svc.Handle(context.Background(), o, bytesSource(parts[idx], ""))
		require.NoError(t, err)

		if n < len(order)-1 {
			require.False(t, res.Complete(), "upload finished after %d chunks", n+1)
			assert.Equal(t, uint(idx), *res.Chunk)
			assert.DirExists(t, filepath.Join(dir, "archive.tar"+uploadproto.ChunkDirSuffix))
			continue
		}
		require.True(t, res.Complete())
	}

	got, err := os.ReadFile(filepath.Join(dir, "archive.tar"))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, []string{"archive.tar"}, dirNames(t, dir))
}

func Test_Handle_SideDirResend(t *testing.T) {
	dir := t.TempDir()
	svc := New(Deps{})

	send := func(idx uint, body string) models.UploadResult {
		o := mustOptions(t, dir, WithFileName("r.txt"), WithChunk(idx, 2))
		res, err := svc.Handle(context.Background(), o, bytesSource([]byte(body), ""))
		require.NoError(t, err)
		return res
	}

	assert.False(t, send(0, "AAAA").Complete())
	assert.False(t, send(0, "aa").Complete())
	assert.True(t, send(1, "bb").Complete())

	got, err := os.ReadFile(filepath.Join(dir, "r.txt"))
	require.NoError(t, err)
	assert.Equal(t, "aabb", string(got))
}

func Test_Handle_SideDirWithoutCombine(t *testing.T) {
	dir := t.TempDir()
	svc := New(Deps{})

	for i, p := range []string{"one-", "two-", "three"} {
		o := mustOptions(t, dir, WithFileName("lazy.txt"), WithChunk(uint(i), 3), WithCombineOnComplete(false))
		res, err := svc.Handle(context.Background(), o, bytesSource([]byte(p), ""))
		require.NoError(t, err)
		assert.False(t, res.Complete())
	}
	assert.NoFileExists(t, filepath.Join(dir, "lazy.txt"))

	res, err := svc.Combine(context.Background(), mustOptions(t, dir, WithFileName("lazy.txt"), WithChunk(0, 3)))
	require.NoError(t, err)
	assert.Equal(t, uint64(len("one-two-three")), res.Size)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "one-two-three", string(got))
	assert.NoDirExists(t, filepath.Join(dir, "lazy.txt"+uploadproto.ChunkDirSuffix))
}

func Test_Combine_MissingChunk(t *testing.T) {
	dir := t.TempDir()
	chunkDir := filepath.Join(dir, "gap.bin"+uploadproto.ChunkDirSuffix)
	require.NoError(t, os.MkdirAll(chunkDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(chunkDir, "0.part"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(chunkDir, "2.part"), []byte("c"), 0o644))

	_, err := New(Deps{}).Combine(context.Background(), mustOptions(t, dir, WithFileName("gap.bin"), WithChunk(0, 3)))
	require.Error(t, err)
	assert.Equal(t, models.ErrMove, models.KindOf(err))

	assert.FileExists(t, filepath.Join(chunkDir, "0.part"))
	assert.FileExists(t, filepath.Join(chunkDir, "2.part"))
	assert.NoFileExists(t, filepath.Join(dir, "gap.bin"))
	assert.NoFileExists(t, filepath.Join(dir, "gap.bin"+uploadproto.PartSuffix))
}

func Test_Combine_RequiresChunks(t *testing.T) {
	_, err := New(Deps{}).Combine(context.Background(), mustOptions(t, t.TempDir(), WithFileName("x.bin")))
	assert.True(t, errors.Is(err, models.ErrInput))
}

func Test_Handle_CheckerRejects(t *testing.T) {
	dir := t.TempDir()
	svc := New(Deps{})
	reject := WithChecker(CheckerFunc(func(string) bool { return false }))

	_, err := svc.Handle(context.Background(), mustOptions(t, dir, WithFileName("a.txt"), reject), bytesSource([]byte("x"), ""))
	assert.Equal(t, models.ErrSecurity, models.KindOf(err))

	for i, p := range []string{"ab", "cd"} {
		o := mustOptions(t, dir, WithFileName("b.txt"), WithChunk(uint(i), 2), reject)
		_, err = svc.Handle(context.Background(), o, bytesSource([]byte(p), ""))
	}
	assert.Equal(t, models.ErrSecurity, models.KindOf(err))

	for i, p := range []string{"ab", "cd"} {
		o := mustOptions(t, dir, WithFileName("c.txt"), WithChunk(uint(i), 2), WithAppendChunks(true), reject)
		_, err = svc.Handle(context.Background(), o, bytesSource([]byte(p), ""))
	}
	assert.Equal(t, models.ErrSecurity, models.KindOf(err))

	assert.Empty(t, dirNames(t, dir))
}

func Test_Handle_CheckerSeesTempFile(t *testing.T) {
	dir := t.TempDir()
	var checked string
	o := mustOptions(t, dir, WithFileName("v.txt"), WithChecker(CheckerFunc(func(p string) bool {
		checked = p
		b, err := os.ReadFile(p)
		return err == nil && string(b) == "valid"
	})))

	res, err := New(Deps{}).Handle(context.Background(), o, bytesSource([]byte("valid"), ""))
	require.NoError(t, err)
	assert.Equal(t, res.Path+uploadproto.PartSuffix, checked)
}

func Test_Handle_SeparateTmpDir(t *testing.T) {
	targetDir := t.TempDir()
	tmpDir := t.TempDir()
	svc := New(Deps{})

	o := mustOptions(t, targetDir, WithTmpDir(tmpDir), WithFileName("t.bin"), WithChunk(0, 2))
	_, err := svc.Handle(context.Background(), o, bytesSource([]byte("12"), ""))
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(tmpDir, "t.bin"+uploadproto.ChunkDirSuffix))
	assert.Empty(t, dirNames(t, targetDir))

	o = mustOptions(t, targetDir, WithTmpDir(tmpDir), WithFileName("t.bin"), WithChunk(1, 2))
	res, err := svc.Handle(context.Background(), o, bytesSource([]byte("34"), ""))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(targetDir, "t.bin"), res.Path)
	assert.Empty(t, dirNames(t, tmpDir))
}

func Test_Handle_SlotErrors(t *testing.T) {
	dir := t.TempDir()
	svc := New(Deps{})
	o := mustOptions(t, dir, WithFileName("s.txt"))

	cases := map[string]Source{
		"missing":   (*Slot)(nil),
		"transport": &Slot{Field: "file", FileName: "s.txt", Err: io.ErrUnexpectedEOF},
		"not file":  &Slot{Field: "file", Reader: strings.NewReader("x")},
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Handle(context.Background(), o, src)
			assert.Equal(t, models.ErrInput, models.KindOf(err))
			assert.NoFileExists(t, filepath.Join(dir, "s.txt"))
		})
	}

	res, err := svc.Handle(context.Background(), mustOptions(t, dir), &Slot{Field: "file", FileName: "slot.txt", Reader: strings.NewReader("slot")})
	require.NoError(t, err)
	assert.Equal(t, "slot.txt", res.Name)
}

func Test_Handle_Cancelled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Deps{}).Handle(ctx, mustOptions(t, dir, WithFileName("c.bin")), bytesSource([]byte("data"), ""))
	assert.Equal(t, models.ErrInput, models.KindOf(err))
	assert.FileExists(t, filepath.Join(dir, "c.bin"+uploadproto.PartSuffix))
	assert.NoFileExists(t, filepath.Join(dir, "c.bin"))
}

func Test_Handle_SweepsStalePartials(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "old.bin.part")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	old := time.Now().Add(-10 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	_, err := New(Deps{}).Handle(context.Background(), mustOptions(t, dir, WithFileName("new.bin")), bytesSource([]byte("y"), ""))
	require.NoError(t, err)
	assert.NoFileExists(t, stale)

	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(stale, old, old))
	_, err = New(Deps{}).Handle(context.Background(), mustOptions(t, dir, WithFileName("new.bin"), WithCleanup(false)), bytesSource([]byte("y"), ""))
	require.NoError(t, err)
	assert.FileExists(t, stale)
}

func Test_Handle_ChunkDirIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "v.bin"+uploadproto.ChunkDirSuffix)
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	o := mustOptions(t, dir, WithFileName("v.bin"), WithChunk(0, 2))
	_, err := New(Deps{}).Handle(context.Background(), o, bytesSource([]byte("data"), ""))
	require.Error(t, err)
	assert.Equal(t, models.ErrTempDir, models.KindOf(err))
	assert.FileExists(t, blocker)
}

func Test_Handle_PartPathIsDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "w.bin"+uploadproto.PartSuffix)
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0o755))

	_, err := New(Deps{}).Handle(context.Background(), mustOptions(t, dir, WithFileName("w.bin")), bytesSource([]byte("data"), ""))
	require.Error(t, err)
	assert.Equal(t, models.ErrOutput, models.KindOf(err))
	assert.NoFileExists(t, filepath.Join(dir, "w.bin"))
}

func Test_Handle_CombineOutputError(t *testing.T) {
	dir := t.TempDir()
	svc := New(Deps{})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "x.bin"+uploadproto.PartSuffix, "keep"), 0o755))

	o := mustOptions(t, dir, WithFileName("x.bin"), WithChunk(0, 2))
	_, err := svc.Handle(context.Background(), o, bytesSource([]byte("ab"), ""))
	require.NoError(t, err)

	o = mustOptions(t, dir, WithFileName("x.bin"), WithChunk(1, 2))
	_, err = svc.Handle(context.Background(), o, bytesSource([]byte("cd"), ""))
	require.Error(t, err)
	assert.Equal(t, models.ErrOutput, models.KindOf(err))

	chunkDir := filepath.Join(dir, "x.bin"+uploadproto.ChunkDirSuffix)
	assert.FileExists(t, filepath.Join(chunkDir, "0.part"))
	assert.FileExists(t, filepath.Join(chunkDir, "1.part"))
	assert.NoFileExists(t, filepath.Join(dir, "x.bin"))
}

func Test_Handle_SweepFailureIsLogged(t *testing.T) {
	dir := t.TempDir()
	// .locks как обычный файл: уборщик не может прочитать каталог блокировок.
	require.NoError(t, os.WriteFile(filepath.Join(dir, uploadproto.LocksDir), []byte("x"), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	svc := New(Deps{Logger: zap.New(core)})

	res, err := svc.Handle(context.Background(), mustOptions(t, dir, WithFileName("ok.txt")), bytesSource([]byte("fine"), ""))
	require.NoError(t, err)
	assert.True(t, res.Complete())
	assert.FileExists(t, filepath.Join(dir, "ok.txt"))
	assert.Equal(t, 1, logs.FilterMessage("sweep of partial uploads failed").Len())
}

func Test_Handle_SideDirIgnoresForeignChunks(t *testing.T) {
	dir := t.TempDir()
	chunkDir := filepath.Join(dir, "f.bin"+uploadproto.ChunkDirSuffix)
	require.NoError(t, os.MkdirAll(chunkDir, 0o755))
	for _, name := range []string{"5.part", "01.part", "notes.part"} {
		require.NoError(t, os.WriteFile(filepath.Join(chunkDir, name), []byte("OLD"), 0o644))
	}

	svc := New(Deps{})
	send := func(idx uint, body string) models.UploadResult {
		o := mustOptions(t, dir, WithFileName("f.bin"), WithChunk(idx, 3))
		res, err := svc.Handle(context.Background(), o, bytesSource([]byte(body), ""))
		require.NoError(t, err)
		return res
	}

	assert.False(t, send(0, "new0").Complete())
	res := send(1, "new1")
	assert.False(t, res.Complete())
	assert.Equal(t, uint64(len("new0new1")), res.Size)
	assert.True(t, send(2, "new2").Complete())

	got, err := os.ReadFile(filepath.Join(dir, "f.bin"))
	require.NoError(t, err)
	assert.Equal(t, "new0new1new2", string(got))
}

func Test_LockPath(t *testing.T) {
	dir := t.TempDir()
	p, err := LockPath(mustOptions(t, dir, WithFileName("a b.txt")), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, uploadproto.LocksDir, "a-b.txt"+uploadproto.LockSuffix), p)

	_, err = LockPath(mustOptions(t, dir), "")
	assert.Equal(t, models.ErrInput, models.KindOf(err))
}
