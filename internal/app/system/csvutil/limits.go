// internal/app/system/csvutil/limits.go
package csvutil

// Size and row limits for CSV processing, applied to both uploads and
// fetched spreadsheets.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000
)
