package domain

import "time"

// Config holds the complete fraudlens configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Artifact loading (model, scaler, background set)
	Artifacts ArtifactConfig `json:"artifacts"`

	// Inference behavior
	Inference InferenceConfig `json:"inference"`

	// Optional CEL triage policy applied after scoring
	Policy PolicyConfig `json:"policy"`

	// Component configurations
	Cache    CacheConfig    `json:"cache"`
	EventBus EventBusConfig `json:"eventBus"`

	// Session history (in-memory only)
	History HistoryConfig `json:"history"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// ArtifactConfig locates the three frozen artifacts loaded at startup.
// A load failure for any of them is fatal; the process must not serve.
type ArtifactConfig struct {
	// Dir is the artifact directory.
	Dir string `json:"dir"`

	// ModelFile and ScalerFile are JSON artifacts, relative to Dir.
	ModelFile  string `json:"modelFile"`
	ScalerFile string `json:"scalerFile"`

	// BackgroundDriver is "csv" or "sqlite".
	BackgroundDriver string `json:"backgroundDriver"`

	// BackgroundFile is the CSV file or SQLite database, relative to Dir.
	BackgroundFile string `json:"backgroundFile"`

	// BackgroundTable is the SQLite table name (sqlite driver only).
	BackgroundTable string `json:"backgroundTable"`
}

// SchemaPolicy controls how unrecognized record fields are handled.
type SchemaPolicy string

const (
	// SchemaStrict rejects records carrying unknown extra fields.
	SchemaStrict SchemaPolicy = "strict"

	// SchemaLenient silently ignores unknown extra fields.
	SchemaLenient SchemaPolicy = "lenient"
)

// ExplainabilityPolicy controls what happens when attribution fails.
type ExplainabilityPolicy string

const (
	// ExplainFail aborts the whole call on an attribution failure.
	ExplainFail ExplainabilityPolicy = "fail"

	// ExplainDegrade returns the score with an empty attribution instead.
	ExplainDegrade ExplainabilityPolicy = "degrade"
)

// InferenceConfig holds per-call pipeline behavior.
type InferenceConfig struct {
	Schema         SchemaPolicy         `json:"schema"`
	Explainability ExplainabilityPolicy `json:"explainability"`

	// TopK is the maximum number of ranked attributions returned.
	TopK int `json:"topK"`
}

// PolicyConfig holds the optional post-score triage policy.
type PolicyConfig struct {
	// Expression is a CEL expression over probability, prediction, amount,
	// and elapsed time. Empty disables the policy.
	Expression string `json:"expression"`
}

// HistoryConfig holds in-memory session history settings.
type HistoryConfig struct {
	// MaxEntries caps the ring buffer; oldest entries are dropped first.
	MaxEntries int `json:"maxEntries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
}

// DefaultConfig returns the default single-node configuration: CSV
// background set, in-process cache, channel event bus.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Artifacts: ArtifactConfig{
			Dir:              "./artifacts",
			ModelFile:        "model.json",
			ScalerFile:       "scaler.json",
			BackgroundDriver: "csv",
			BackgroundFile:   "background.csv",
			BackgroundTable:  "background",
		},
		Inference: InferenceConfig{
			Schema:         SchemaStrict,
			Explainability: ExplainFail,
			TopK:           5,
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     time.Minute,
			ResultTTL:    time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		History: HistoryConfig{
			MaxEntries: 500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "fraudlens",
		},
	}
}

// DistributedConfig returns a configuration for multi-node deployments:
// Redis result cache and NATS event bus.
func DistributedConfig() *Config {
	cfg := DefaultConfig()
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
		LocalTTL:       time.Minute,
		ResultTTL:      5 * time.Minute,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
