// internal/app/system/limits/limits.go
package limits

// Request body and batch limits.
const (
	// MaxJSONBody bounds ordinary JSON request bodies.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxImportBody bounds a task import upload.
	MaxImportBody = 8 << 20 // 8 MB

	// MaxImportRows bounds how many tasks one import may create.
	MaxImportRows = 1000

	// MaxCommentLength bounds a comment's stored HTML.
	MaxCommentLength = 64 << 10 // 64 KB
)
