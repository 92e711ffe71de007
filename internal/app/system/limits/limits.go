// internal/app/system/limits/limits.go
package limits

// Request body size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size for ordinary JSON requests.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxSeedBody is the maximum size for a bulk seed upload (JSON array or CSV).
	MaxSeedBody = 10 << 20 // 10 MB

	// MaxBulkVendors caps the number of vendors in one bulk create.
	MaxBulkVendors = 500
)
