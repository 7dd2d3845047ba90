// Package config loads and validates config.yaml for mtlkit.
//
// The config file is the sole source of runtime settings: the LLM endpoint,
// the translation pipeline knobs, and the Excel QC export. Every pipeline
// instance takes its own snapshot of the loaded config, so concurrent file
// workers never observe each other's state.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = "config.yaml"

// APIKeyEnv is the environment variable consulted when llm_settings.api_key
// is empty. A --api-key flag (handled by the CLI) wins over both.
const APIKeyEnv = "MTLKIT_API_KEY"

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// Config is the top-level config.yaml structure.
type Config struct {
	LLM         LLMSettings         `yaml:"llm_settings"`
	Translation TranslationSettings `yaml:"translation_settings"`
	Excel       ExcelSettings       `yaml:"excel_export"`
}

// LLMSettings describes the OpenAI-compatible chat completions endpoint
// and the primary model/sampling parameters.
type LLMSettings struct {
	// APIURL is the full chat completions URL (e.g. http://localhost:1234/v1/chat/completions).
	APIURL string `yaml:"api_url"`
	// APIKey is sent as a Bearer token. May be empty for local servers.
	APIKey string `yaml:"api_key,omitempty"`
	// Model is the primary model identifier.
	Model string `yaml:"model"`
	// SystemPrompt is the fixed system instruction for every request.
	SystemPrompt string `yaml:"system_prompt"`
	// Temperature is the primary sampling temperature.
	Temperature float64 `yaml:"temperature"`
	// MaxTokens caps the completion length (default 2048).
	MaxTokens int `yaml:"max_tokens,omitempty"`
	// MinP is the min-p sampling cutoff (default 0.05).
	MinP *float64 `yaml:"min_p,omitempty"`
	// TopP is the optional nucleus sampling knob (omitted when nil).
	TopP *float64 `yaml:"top_p,omitempty"`
	// TopK is the optional top-k sampling knob (omitted when nil).
	TopK *int `yaml:"top_k,omitempty"`
	// TimeoutSec is the per-request timeout in seconds (default 60).
	TimeoutSec float64 `yaml:"timeout,omitempty"`
}

// TranslationSettings controls the batching/retry/escalation engine and
// the folder orchestration.
type TranslationSettings struct {
	// InputFolder holds the untranslated script JSON files.
	InputFolder string `yaml:"input_folder"`
	// OutputFolder receives translated files at mirrored relative paths.
	OutputFolder string `yaml:"output_folder"`

	// UseDictionary enables the glossary preprocessor.
	UseDictionary bool `yaml:"use_dictionary"`
	// DictionaryFile is the glossary JSON path (flat term → rendering map).
	DictionaryFile string `yaml:"dictionary_file,omitempty"`

	// ContextLines is the context window capacity for sequential mode
	// (0 disables context).
	ContextLines int `yaml:"context_lines"`

	// RetryAttempts bounds both transport retries and validation retries
	// (default 3; an explicit 0 disables retries).
	RetryAttempts *int `yaml:"retry_attempts,omitempty"`
	// RetryDelaySec is the fixed sleep between retries, in seconds.
	RetryDelaySec float64 `yaml:"retry_delay"`
	// RetryOnJapanese re-attempts results that still read as Japanese
	// (default true).
	RetryOnJapanese *bool `yaml:"retry_on_japanese,omitempty"`

	// UseBatch selects batched translation (default true); when false each
	// unit is translated in document order with conversational context.
	UseBatch *bool `yaml:"use_batch_translation,omitempty"`
	// BatchSize is the number of units per batched request (default 25).
	BatchSize *int `yaml:"batch_size,omitempty"`
	// BatchDelaySec sleeps between batches, in seconds (default 0).
	BatchDelaySec float64 `yaml:"batch_delay,omitempty"`

	// EnableTwoPass re-attempts failed units under the second-pass model.
	EnableTwoPass bool `yaml:"enable_two_pass"`
	// SecondPassModel is the alternate (stronger) model for the second pass.
	SecondPassModel string `yaml:"second_pass_model,omitempty"`
	// SecondPassTemperature is the alternate temperature (default 0.3).
	SecondPassTemperature float64 `yaml:"second_pass_temperature,omitempty"`

	// ConcurrentFiles is the file worker pool size (1 = sequential).
	ConcurrentFiles int `yaml:"concurrent_files"`
	// FileTimeoutSec bounds the wall-clock time spent on one file,
	// in seconds (0 = no ceiling).
	FileTimeoutSec float64 `yaml:"file_timeout,omitempty"`

	// CleanupPlaceholder is the sentinel left by incomplete translations,
	// blanked case-insensitively after a run (default "Monologue").
	CleanupPlaceholder string `yaml:"cleanup_placeholder,omitempty"`
}

// ExcelSettings controls the QC spreadsheet export.
type ExcelSettings struct {
	// OutputFile is the workbook path (default translations_qc.xlsx).
	OutputFile string `yaml:"output_file"`
	// Columns are the exported data columns, after the leading FilePath
	// column. Defaults to blockIdx, jpName, enName, jpText, enText, QC.
	Columns []string `yaml:"columns,omitempty"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads and validates a config file. The API key falls back to the
// MTLKIT_API_KEY environment variable when absent from the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(APIKeyEnv)
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2048
	}
	if c.LLM.MinP == nil {
		minP := 0.05
		c.LLM.MinP = &minP
	}
	if c.LLM.TimeoutSec == 0 {
		c.LLM.TimeoutSec = 60
	}

	t := &c.Translation
	if t.RetryAttempts == nil {
		v := 3
		t.RetryAttempts = &v
	}
	if t.RetryDelaySec == 0 {
		t.RetryDelaySec = 2
	}
	if t.RetryOnJapanese == nil {
		v := true
		t.RetryOnJapanese = &v
	}
	if t.UseBatch == nil {
		v := true
		t.UseBatch = &v
	}
	if t.BatchSize == nil {
		v := 25
		t.BatchSize = &v
	}
	if t.ConcurrentFiles == 0 {
		t.ConcurrentFiles = 1
	}
	if t.SecondPassTemperature == 0 {
		t.SecondPassTemperature = 0.3
	}
	if t.CleanupPlaceholder == "" {
		t.CleanupPlaceholder = "Monologue"
	}

	if c.Excel.OutputFile == "" {
		c.Excel.OutputFile = "translations_qc.xlsx"
	}
	if len(c.Excel.Columns) == 0 {
		c.Excel.Columns = []string{"blockIdx", "jpName", "enName", "jpText", "enText", "QC"}
	}
}

func (c *Config) validate(path string) error {
	if c.LLM.APIURL == "" {
		return fmt.Errorf("%s: llm_settings.api_url is required", path)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("%s: llm_settings.model is required", path)
	}
	if c.Translation.InputFolder == "" {
		return fmt.Errorf("%s: translation_settings.input_folder is required", path)
	}
	if c.Translation.OutputFolder == "" {
		return fmt.Errorf("%s: translation_settings.output_folder is required", path)
	}
	if c.Translation.UseDictionary && c.Translation.DictionaryFile == "" {
		return fmt.Errorf("%s: translation_settings.dictionary_file is required when use_dictionary is set", path)
	}
	if c.Translation.BatchSize != nil && *c.Translation.BatchSize < 0 {
		return fmt.Errorf("%s: translation_settings.batch_size must not be negative", path)
	}
	if c.Translation.RetryAttempts != nil && *c.Translation.RetryAttempts < 0 {
		return fmt.Errorf("%s: translation_settings.retry_attempts must not be negative", path)
	}
	if c.Translation.ConcurrentFiles < 1 {
		return fmt.Errorf("%s: translation_settings.concurrent_files must be at least 1", path)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Duration accessors (the file stores plain seconds)
// ---------------------------------------------------------------------------

// RetryDelay returns the fixed inter-retry sleep.
func (t *TranslationSettings) RetryDelay() time.Duration {
	return secondsToDuration(t.RetryDelaySec)
}

// BatchDelay returns the inter-batch sleep (0 = none).
func (t *TranslationSettings) BatchDelay() time.Duration {
	return secondsToDuration(t.BatchDelaySec)
}

// FileTimeout returns the per-file wall-clock ceiling (0 = no ceiling).
func (t *TranslationSettings) FileTimeout() time.Duration {
	return secondsToDuration(t.FileTimeoutSec)
}

// Timeout returns the per-request HTTP timeout.
func (l *LLMSettings) Timeout() time.Duration {
	return secondsToDuration(l.TimeoutSec)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Retries returns the retry bound. An explicit 0 means a single attempt;
// only an absent value falls back to the default of 3.
func (t *TranslationSettings) Retries() int {
	if t.RetryAttempts == nil {
		return 3
	}
	return *t.RetryAttempts
}

// BatchLimit returns the batch size (default 25).
func (t *TranslationSettings) BatchLimit() int {
	if t.BatchSize == nil {
		return 25
	}
	return *t.BatchSize
}

// RetryJapanese reports whether validation retries are enabled.
func (t *TranslationSettings) RetryJapanese() bool {
	return t.RetryOnJapanese == nil || *t.RetryOnJapanese
}

// Batched reports whether batched translation is selected.
func (t *TranslationSettings) Batched() bool {
	return t.UseBatch == nil || *t.UseBatch
}
