package observe

import "errors"

// Configuration errors, wrapped by Config.Validate.
var (
	// ErrMissingServiceName: Config.ServiceName was empty.
	ErrMissingServiceName = errors.New("observe: service name is required")

	// ErrInvalidSamplePct: Tracing.SamplePct outside [0.0, 1.0].
	ErrInvalidSamplePct = errors.New("observe: sample percentage must be between 0.0 and 1.0")

	// ErrInvalidTracingExporter: unrecognized tracing exporter name.
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")

	// ErrInvalidMetricsExporter: unrecognized metrics exporter name.
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")

	// ErrInvalidLogLevel: unrecognized log level.
	ErrInvalidLogLevel = errors.New("observe: invalid log level")
)

// Runtime errors.
var (
	// ErrNilObserver: a nil Observer was passed where one is required.
	ErrNilObserver = errors.New("observe: observer is nil")

	// ErrMissingPlatform: OpMeta.Platform was empty.
	ErrMissingPlatform = errors.New("observe: platform is required")
)

// Sampling bounds accepted by Config.Validate.
const (
	MinSamplePct = 0.0
	MaxSamplePct = 1.0
)

// Accepted subsystem names. The empty string means the subsystem is
// configured but effectively disabled.
var (
	ValidTracingExporters = []string{"otlp", "stdout", "none", ""}
	ValidMetricsExporters = []string{"otlp", "prometheus", "stdout", "none", ""}
	ValidLogLevels        = []string{"debug", "info", "warn", "error", ""}
)

// RedactedFields lists field keys that are automatically redacted in logs.
// These fields may carry credentials or raw upstream payloads.
var RedactedFields = []string{
	"access_token",
	"refresh_token",
	"authorization",
	"password",
	"secret",
	"token",
	"api_key",
	"apiKey",
	"credential",
}
