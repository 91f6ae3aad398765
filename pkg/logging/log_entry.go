package logging

// LogEntry represents a structured log record.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// General structured data (generation index, fitness stats, ...)
	Fields map[string]interface{}
}
