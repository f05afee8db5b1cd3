package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, carried in context along the call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldProvider is the external template provider identifier
	FieldProvider = "provider"

	// FieldCacheKey is the cache slot being read or written
	FieldCacheKey = "cache_key"

	// FieldMemeID is the saved meme record ID
	FieldMemeID = "meme_id"

	// FieldStorageKey is the content store object key
	FieldStorageKey = "storage_key"
)

// Metric fields, attached per log entry for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
