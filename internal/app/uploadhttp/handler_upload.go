package uploadhttp

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/internal/usecase/uploadsvc"
	"github.com/yourname/upload_lite/pkg/httperrors"
)

// upload принимает файл целиком или очередной чанк и отвечает конвертом с UploadResult.
func (a *Server) upload(w http.ResponseWriter, r *http.Request) {
	if a.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadBytes)
	}

	req, err := a.parseUploadRequest(r)
	if err != nil {
		a.reject(w, r, "upload", err)
		return
	}

	o, err := a.options(req)
	if err != nil {
		a.reject(w, r, "upload", err)
		return
	}

	res, err := a.run(r.Context(), "upload", o, req, func(ctx context.Context) (models.UploadResult, error) {
		return a.uploads.Handle(ctx, o, req.src)
	})
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	httperrors.WriteOK(w, http.StatusOK, res)
}

// run выполняет операцию движка под блокировкой загрузки, в отдельном span,
// и фиксирует результат в реестре, метриках и логе.
func (a *Server) run(
	ctx context.Context,
	op string,
	o uploadsvc.Options,
	req *uploadRequest,
	fn func(ctx context.Context) (models.UploadResult, error),
) (models.UploadResult, error) {
	opID := uuid.NewString()
	started := time.Now()
	mode := o.Mode()

	declared := ""
	if req.src != nil {
		declared = req.src.DeclaredName()
	}

	ctx, span := a.tracer.Start(ctx, "uploadhttp."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("upload.op_id", opID),
		attribute.String("upload.mode", string(mode)),
		attribute.Int("upload.chunk", int(o.Chunk)),
		attribute.Int("upload.chunks", int(o.Chunks)),
	)

	res, err := a.locked(ctx, o, declared, fn)
	elapsed := time.Since(started)
	a.metrics.observe(mode, res, err, elapsed.Seconds())

	fields := []zap.Field{
		zap.String("op_id", opID),
		zap.String("request_id", middleware.GetReqID(ctx)),
		zap.String("op", op),
		zap.String("mode", string(mode)),
		zap.Uint("chunk", o.Chunk),
		zap.Uint("chunks", o.Chunks),
		zap.Duration("elapsed", elapsed),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Warn("upload failed", append(fields,
			zap.String("name", o.FileName),
			zap.Int("code", models.KindOf(err).Code()),
			zap.Error(err),
		)...)
		return models.UploadResult{}, err
	}

	span.SetAttributes(
		attribute.String("upload.name", res.Name),
		attribute.Int64("upload.size", int64(res.Size)),
		attribute.Bool("upload.complete", res.Complete()),
	)

	outcome := "chunk"
	if res.Complete() {
		outcome = "complete"
		a.register(ctx, res, o)
	}
	a.logger.Info("upload handled", append(fields,
		zap.String("name", res.Name),
		zap.Uint64("size", res.Size),
		zap.String("outcome", outcome),
	)...)

	return res, nil
}

// register записывает зафиксированную загрузку в реестр. Файл уже на месте,
// поэтому сбой реестра только логируется.
func (a *Server) register(ctx context.Context, res models.UploadResult, o uploadsvc.Options) {
	err := a.store.Save(ctx, models.File{
		Name:        res.Name,
		Path:        res.Path,
		Size:        res.Size,
		Chunks:      o.Chunks,
		Mode:        o.Mode(),
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		a.logger.Warn("registry save failed", zap.String("name", res.Name), zap.Error(err))
	}
}

// locked выполняет fn под блокировкой загрузки. Имя, которое не проходит
// проверку, движок отклонит сам, блокировка для него не берётся.
func (a *Server) locked(
	ctx context.Context,
	o uploadsvc.Options,
	declared string,
	fn func(ctx context.Context) (models.UploadResult, error),
) (models.UploadResult, error) {
	lockPath, err := uploadsvc.LockPath(o, declared)
	if err != nil {
		return fn(ctx)
	}

	unlock, err := lockUpload(lockPath)
	if err != nil {
		return models.UploadResult{}, err
	}
	defer unlock()

	return fn(ctx)
}

// reject логирует ошибку разбора запроса и пишет её клиенту.
func (a *Server) reject(w http.ResponseWriter, r *http.Request, op string, err error) {
	a.metrics.observe(modeUnknown, models.UploadResult{}, err, 0)
	a.logger.Warn("upload rejected",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("op", op),
		zap.Error(err),
	)
	httperrors.Write(w, err)
}
