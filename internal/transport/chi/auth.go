package chi

import (
	"net/http"
)

// FunctionKeyHeader carries the skill access key.
const FunctionKeyHeader = "x-functions-key"

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// FunctionKeyMiddleware validates the key sent in the x-functions-key header
// or the "code" query parameter. If keys is empty, authentication is disabled.
func FunctionKeyMiddleware(keys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(FunctionKeyHeader)
			if key == "" {
				key = r.URL.Query().Get("code")
			}
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing function key")
				return
			}
			if _, ok := validKeys[key]; !ok {
				writeError(w, http.StatusUnauthorized, "invalid function key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
