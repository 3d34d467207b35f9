// Package uploadhttp реализует HTTP-интерфейс загрузчика поверх uploadsvc. Основные эндпоинты:
//   - POST|PUT /upload — принимает файл целиком или очередной чанк (multipart или сырое тело).
//   - POST /upload/combine — собирает чанки, принятые без сборки на последнем чанке.
//   - GET /uploads/{name} — отдаёт запись реестра о зафиксированной загрузке.
//   - POST /admin/gc — вручную запускает уборку частичных загрузок.
//   - GET /health — отдаёт агрегированные данные по каталогу загрузок.
//   - GET /metrics — метрики Prometheus.
package uploadhttp
