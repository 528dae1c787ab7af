package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all process configuration. Values are read once at startup
// and treated as immutable for the process lifetime.
type Config struct {
	// HTTP transport
	Port      string
	DomainURL string

	// Image intake
	UploadDir     string
	MaxImageBytes int64
	Formats       []string
	MinDimension  int
	MaxDimension  int

	// Vision extraction
	Provider       string
	Model          string
	ExtractTimeout time.Duration

	// Controlled vocabularies
	ProductTypes []string
	Colors       []string

	// Catalog store
	StoreBackend    string // "sheets" or "parquet"
	CredentialsFile string
	SheetID         string
	SheetName       string
	ParquetPath     string
}

// Default vocabularies. A vocabulary file replaces these wholesale.
var (
	defaultProductTypes = []string{
		"shirt", "t-shirt", "blouse", "top",
		"pants", "jeans", "trousers", "shorts",
		"dress", "skirt", "jumpsuit",
		"shoes", "sneakers", "boots", "sandals",
		"jacket", "coat", "hoodie", "sweater",
		"accessories", "bag", "hat", "jewelry",
		"underwear", "swimwear", "socks",
		"other",
	}
	defaultColors = []string{
		"black", "white", "gray", "grey",
		"red", "blue", "green", "yellow",
		"pink", "purple", "orange", "brown",
		"beige", "navy", "maroon", "teal",
		"multicolor", "pattern", "floral", "striped",
	}
)

// vocabFile is the on-disk shape of a vocabulary override file.
type vocabFile struct {
	ProductTypes []string `yaml:"product_types"`
	Colors       []string `yaml:"colors"`
}

// Load reads configuration from the environment. VOCAB_FILE, when set, points
// to a YAML file overriding the built-in vocabularies.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            envOr("PORT", "8888"),
		DomainURL:       strings.TrimSuffix(envOr("DOMAIN_URL", "http://localhost:8888"), "/"),
		UploadDir:       envOr("UPLOAD_DIR", "uploads"),
		MinDimension:    100,
		MaxDimension:    12000,
		Provider:        envOr("VISION_PROVIDER", "openai"),
		Model:           os.Getenv("VISION_MODEL"),
		StoreBackend:    envOr("STORE_BACKEND", "parquet"),
		CredentialsFile: envOr("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		SheetID:         os.Getenv("GOOGLE_SHEET_ID"),
		SheetName:       envOr("GOOGLE_SHEET_NAME", "Sheet1"),
		ParquetPath:     envOr("CATALOG_PATH", "catalog.parquet"),
		ProductTypes:    defaultProductTypes,
		Colors:          defaultColors,
	}

	maxBytes, err := envInt64("MAX_FILE_SIZE", 10*1024*1024)
	if err != nil {
		return nil, err
	}
	cfg.MaxImageBytes = maxBytes

	timeoutSecs, err := envInt64("EXTRACT_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.ExtractTimeout = time.Duration(timeoutSecs) * time.Second

	cfg.Formats = splitList(envOr("ALLOWED_FORMATS", "jpg,jpeg,png,gif"))

	if path := os.Getenv("VOCAB_FILE"); path != "" {
		if err := cfg.loadVocabFile(path); err != nil {
			return nil, err
		}
	}

	switch cfg.StoreBackend {
	case "sheets", "parquet":
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND: %s (supported: sheets, parquet)", cfg.StoreBackend)
	}

	return cfg, nil
}

func (c *Config) loadVocabFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var vf vocabFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}

	if len(vf.ProductTypes) == 0 || len(vf.Colors) == 0 {
		return fmt.Errorf("vocabulary file %s must define both product_types and colors", path)
	}

	c.ProductTypes = vf.ProductTypes
	c.Colors = vf.Colors
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
