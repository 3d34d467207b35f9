package uploadhttp

import (
	"net/http"
	"strings"
	"time"
)

const expiresInPast = "Mon, 26 Jul 1997 05:00:00 GMT"

// NoCache запрещает кэширование ответов (мобильные браузеры кэшируют POST-ответы).
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Expires", expiresInPast)
		h.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		h.Add("Cache-Control", "post-check=0, pre-check=0")
		h.Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

// CORS выставляет заголовки extra и Access-Control-Allow-Origin (если extra его не задал).
// Preflight-запрос OPTIONS завершается здесь пустым 200.
func CORS(origin string, extra map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowOrigin := false
			for k, v := range extra {
				if strings.EqualFold(k, "Access-Control-Allow-Origin") {
					allowOrigin = true
				}
				w.Header().Set(k, v)
			}
			if origin != "" && !allowOrigin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// defaultCORSHeaders — заголовки, которые нужны клиенту загрузки.
func defaultCORSHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Methods": "GET, POST, PUT, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, X-File-Name, X-Filename, X-Checksum-Sha256",
	}
}
