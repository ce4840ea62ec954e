package contextkey

// Key is the type of every request scoped value the services store in a
// context. Its string form is the log field name.
type Key string

const (
	TraceID   Key = "trace_id"
	RequestID Key = "request_id"
	CheckID   Key = "check_id"
	Login     Key = "login"
)
