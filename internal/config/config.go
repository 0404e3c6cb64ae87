package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	EmbedLLM  LLMConfig       `yaml:"embed_llm"`
	Inference InferenceConfig `yaml:"inference"`
	RAG       RAGConfig       `yaml:"rag"`
	Database  DatabaseConfig  `yaml:"database"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"gte=0,lte=65535"`
}

// DatasetConfig locates the conversation corpus on the Hugging Face
// datasets-server API.
type DatasetConfig struct {
	BaseURL     string `yaml:"base_url" validate:"required,url"`
	Name        string `yaml:"name" validate:"required"`
	Config      string `yaml:"config"`
	Split       string `yaml:"split" validate:"required"`
	MaxExamples int    `yaml:"max_examples" validate:"gt=0"`
}

// LLMConfig configures the embedding endpoint. Provider is either
// "ollama" or "openai" (any OpenAI-compatible API).
type LLMConfig struct {
	Provider  string `yaml:"provider" validate:"oneof=ollama openai"`
	BaseURL   string `yaml:"base_url" validate:"required,url"`
	Model     string `yaml:"model" validate:"required"`
	Key       string `yaml:"key"`
	Dimension int    `yaml:"dimension" validate:"gt=0"`
	BatchSize int    `yaml:"batch_size" validate:"gt=0"`
}

type InferenceConfig struct {
	BaseURL        string `yaml:"base_url" validate:"required,url"`
	Model          string `yaml:"model" validate:"required"`
	Key            string `yaml:"key"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gt=0"`
}

type RAGConfig struct {
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	DocsDir      string `yaml:"docs_dir"`
	CacheDir     string `yaml:"cache_dir"`
}

// DatabaseConfig is the optional exchange-log store. Logging is off
// when DSN is empty.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

const (
	defaultDatasetBaseURL = "https://datasets-server.huggingface.co"
	defaultDatasetName    = "altaidevorg/women-health-mini"
	defaultInferenceURL   = "https://api.groq.com/openai/v1"
	defaultInferenceModel = "llama3-70b-8192"
)

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{Host: "0.0.0.0", Port: 8000},
		Dataset: DatasetConfig{
			BaseURL:     defaultDatasetBaseURL,
			Name:        defaultDatasetName,
			Config:      "default",
			Split:       "train",
			MaxExamples: 1000,
		},
		EmbedLLM: LLMConfig{
			Provider:  "ollama",
			BaseURL:   "http://localhost:11434",
			Model:     "all-minilm",
			Dimension: 384,
			BatchSize: 100,
		},
		Inference: InferenceConfig{
			BaseURL:        defaultInferenceURL,
			Model:          defaultInferenceModel,
			TimeoutSeconds: 60,
		},
		RAG: RAGConfig{
			ChunkSize:    1000,
			ChunkOverlap: 500,
		},
	}
}

// LoadConfig reads the yaml config at path, falling back to defaults when the
// file does not exist. GROQ_API_KEY from the environment overrides the file.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		cfg.Inference.Key = key
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
