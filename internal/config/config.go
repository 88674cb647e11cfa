package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendFile      = "file"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

type Config struct {
	Port           int
	AllowedOrigins []string

	StoreBackend string
	DataFile     string
	DatabaseURL  string

	FirestoreProjectID  string
	FirestoreCollection string
	FirestoreDocument   string
	CredentialsFile     string

	Currency            string
	UploadRatePerSecond float64
	UploadBurst         int
	MaxUploadBytes      int64
}

// Load reads ./.env when present. Real environment variables win over the
// file.
func Load() (Config, error) {
	return LoadFrom(filepath.Join(".", ".env"))
}

func LoadFrom(envPath string) (Config, error) {
	values := map[string]string{}
	if _, err := os.Stat(envPath); err == nil {
		fileValues, err := godotenv.Read(envPath)
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", envPath, err)
		}
		values = fileValues
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("stat %s: %w", envPath, err)
	}
	get := func(key string) string {
		return firstNonEmpty(os.Getenv(key), values[key])
	}

	cfg := Config{
		Port:                8080,
		StoreBackend:        BackendFile,
		DataFile:            filepath.Join("data", "inventory.json"),
		FirestoreCollection: "data",
		FirestoreDocument:   "inventory",
		Currency:            "USD",
		UploadRatePerSecond: 2,
		UploadBurst:         5,
		MaxUploadBytes:      32 << 20,
	}

	if portRaw := get("PORT"); portRaw != "" {
		port, err := strconv.Atoi(portRaw)
		if err != nil || port <= 0 {
			return Config{}, fmt.Errorf("invalid PORT: %q", portRaw)
		}
		cfg.Port = port
	}
	if origins := get("ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	if backend := get("STORE_BACKEND"); backend != "" {
		cfg.StoreBackend = strings.ToLower(backend)
	}
	if dataFile := get("DATA_FILE"); dataFile != "" {
		cfg.DataFile = dataFile
	}
	cfg.DatabaseURL = get("DATABASE_URL")
	cfg.FirestoreProjectID = get("FIRESTORE_PROJECT_ID")
	if collection := get("FIRESTORE_COLLECTION"); collection != "" {
		cfg.FirestoreCollection = collection
	}
	if document := get("FIRESTORE_DOCUMENT"); document != "" {
		cfg.FirestoreDocument = document
	}
	cfg.CredentialsFile = get("GOOGLE_APPLICATION_CREDENTIALS")

	switch cfg.StoreBackend {
	case BackendFile:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required for the postgres backend (environment variable or .env)")
		}
	case BackendFirestore:
		if cfg.FirestoreProjectID == "" {
			return Config{}, fmt.Errorf("FIRESTORE_PROJECT_ID is required for the firestore backend (environment variable or .env)")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORE_BACKEND: %q (want file, postgres or firestore)", cfg.StoreBackend)
	}

	if currency := get("CURRENCY"); currency != "" {
		cfg.Currency = strings.ToUpper(currency)
	}
	if raw := get("UPLOAD_RATE_PER_SECOND"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			return Config{}, fmt.Errorf("invalid UPLOAD_RATE_PER_SECOND: %q", raw)
		}
		cfg.UploadRatePerSecond = value
	}
	if raw := get("UPLOAD_RATE_BURST"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return Config{}, fmt.Errorf("invalid UPLOAD_RATE_BURST: %q", raw)
		}
		cfg.UploadBurst = value
	}
	if raw := get("MAX_UPLOAD_MB"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			return Config{}, fmt.Errorf("invalid MAX_UPLOAD_MB: %q", raw)
		}
		cfg.MaxUploadBytes = int64(value) << 20
	}

	return cfg, nil
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if value := strings.TrimSpace(candidate); value != "" {
			return value
		}
	}
	return ""
}
