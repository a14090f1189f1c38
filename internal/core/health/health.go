// Package health serves the gateway's liveness probe.
package health

import "net/http"

const HeaderVersion = "X-Gateway-Version"

// Liveness answers "ok" while the process is serving. It does not probe
// upstream catalogues; their failures surface per request.
func Liveness(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if version != "" {
			w.Header().Set(HeaderVersion, version)
		}
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write([]byte("ok"))
	}
}
