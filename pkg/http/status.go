package xhttp

import "net/http"

// HTTP status codes used by the server and middleware.
const (
	StatusOK                  = http.StatusOK
	StatusNotFound            = http.StatusNotFound
	StatusRequestTimeout      = http.StatusRequestTimeout
	StatusInternalServerError = http.StatusInternalServerError
)

// StatusText returns the text for the HTTP status code.
func StatusText(code int) string {
	return http.StatusText(code)
}
