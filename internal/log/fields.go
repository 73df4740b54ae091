package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldHalf        = "half"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldBuckets     = "buckets"
	FieldTotalCents  = "total_cents"
	FieldCarryIn     = "carry_in"
	FieldFile        = "file"
	FieldSheetsRange = "sheets_range"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentReport    = "report"
	ComponentExport    = "export"
	ComponentSelection = "selection"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentBackend   = "backend"
)

// Operations
const (
	OpQuery     = "query"
	OpAggregate = "aggregate"
	OpRender    = "render"
	OpExport    = "export"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpUpdate    = "update"
	OpSelect    = "select"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields is a small builder for structured log attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error message; nil errors are ignored.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithPeriod adds the fortnight selector.
func (f LogFields) WithPeriod(half, year, month int) LogFields {
	f[FieldHalf] = half
	f[FieldYear] = year
	f[FieldMonth] = month
	return f
}

// WithReport adds the aggregate size of a built report.
func (f LogFields) WithReport(buckets int, totalCents int64) LogFields {
	f[FieldBuckets] = buckets
	f[FieldTotalCents] = totalCents
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value arguments.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
