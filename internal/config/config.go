package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ashdev101/mongo-rag/internal/directory"
	"github.com/ashdev101/mongo-rag/internal/mask"
	"github.com/ashdev101/mongo-rag/internal/policy"
)

// Cfg holds all runtime configuration loaded from environment variables and
// the optional rules file.
type Cfg struct {
	// Server
	ListenAddr string // e.g. :8080

	// HR directory used to resolve caller identities.
	DirectoryURL string // HR_DIRECTORY_URL=http://hr-directory:7000

	// Downstream agent that executes masked queries.
	AgentURL string // HR_AGENT_URL=http://hr-agent:9000

	// LLM used for intent and route classification.
	LLMEnabled bool   // LLM=true enables the model-backed classifiers
	LLMURL     string // LLM_URL=http://ollama:11434
	LLMModel   string // LLM_MODEL=qwen3:4b-instruct-2507-q4_K_M
	LLMAPIKey  string // LLM_API_KEY (optional bearer token)

	// NER sidecar layer for the content masking strategy.
	MaskNER    bool   // MASK_NER=true enables the NER sidecar
	MaskNERURL string // MASK_NER_URL=http://mask-ner:8001

	// Rules loaded from RULES_FILE (yaml), with built-in defaults.
	Rules Rules
}

// Rules is the operator-editable policy surface: which record fields get
// masked, which departments bypass the self-only restriction, and which
// region names the rewriter recognizes.
type Rules struct {
	PIIFields           []string `yaml:"pii_fields"`
	ElevatedDepartments []string `yaml:"elevated_departments"`
	KnownRegions        []string `yaml:"known_regions"`
}

// Load reads .env (if present) then environment variables and returns Cfg.
func Load() (*Cfg, error) {
	// Best-effort: load .env from current directory
	_ = godotenv.Load()

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	directoryURL := strings.TrimSpace(os.Getenv("HR_DIRECTORY_URL"))
	agentURL := strings.TrimSpace(os.Getenv("HR_AGENT_URL"))
	if agentURL == "" {
		return nil, fmt.Errorf("HR_AGENT_URL must be set")
	}

	llmEnabled := boolEnv("LLM")
	llmURL := strings.TrimSpace(os.Getenv("LLM_URL"))
	if llmURL == "" {
		llmURL = "http://ollama:11434"
	}
	llmModel := strings.TrimSpace(os.Getenv("LLM_MODEL"))
	if llmModel == "" {
		llmModel = "qwen2.5:0.5b"
	}

	maskNER := boolEnv("MASK_NER")
	maskNERURL := strings.TrimSpace(os.Getenv("MASK_NER_URL"))
	if maskNERURL == "" {
		maskNERURL = "http://mask-ner:8001"
	}

	rules, err := loadRules(strings.TrimSpace(os.Getenv("RULES_FILE")))
	if err != nil {
		return nil, err
	}

	return &Cfg{
		ListenAddr:   ":" + port,
		DirectoryURL: directoryURL,
		AgentURL:     agentURL,
		LLMEnabled:   llmEnabled,
		LLMURL:       llmURL,
		LLMModel:     llmModel,
		LLMAPIKey:    strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		MaskNER:      maskNER,
		MaskNERURL:   maskNERURL,
		Rules:        rules,
	}, nil
}

// loadRules reads the yaml rules file when path is set and fills defaults
// for any section left empty.
func loadRules(path string) (Rules, error) {
	var r Rules
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return r, fmt.Errorf("rules file: %w", err)
		}
		if err := yaml.Unmarshal(b, &r); err != nil {
			return r, fmt.Errorf("rules file %s: %w", path, err)
		}
	}
	if len(r.PIIFields) == 0 {
		r.PIIFields = append([]string(nil), mask.DefaultFields...)
	}
	if len(r.ElevatedDepartments) == 0 {
		r.ElevatedDepartments = append([]string(nil), policy.DefaultElevatedDepartments...)
	}
	if len(r.KnownRegions) == 0 {
		r.KnownRegions = append([]string(nil), policy.DefaultKnownRegions...)
	}
	return r, nil
}

// Resolver builds the identity resolver: the HTTP directory when configured,
// otherwise an empty static resolver that treats every caller as unknown.
func (c *Cfg) Resolver() directory.Resolver {
	if c.DirectoryURL != "" {
		return directory.NewHTTPResolver(c.DirectoryURL)
	}
	return directory.NewStaticResolver(nil)
}

func boolEnv(name string) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw == "1" || strings.EqualFold(raw, "true")
}
