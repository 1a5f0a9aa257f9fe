package httpapi

// maxBodyBytes controls the maximum allowed request body size for JSON
// endpoints. Multipart uploads get a separate, larger budget sized for the
// attachment limit (3 files x 20 MB plus form overhead).
var (
	maxBodyBytes   int64 = 1 << 20
	maxUploadBytes int64 = 64 << 20
)

// SetMaxBodyBytes allows configuring the maximum JSON request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// SetMaxUploadBytes allows configuring the maximum multipart body size.
func SetMaxUploadBytes(n int64) {
	if n <= 0 {
		maxUploadBytes = 64 << 20
		return
	}
	maxUploadBytes = n
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
