package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds the application's configuration values.
type Config struct {
	AppName      string        `json:"appname"`
	AppEnv       string        `json:"appenv"`
	AppPort      uint16        `json:"appport"`
	GinMode      string        `json:"ginmode"`
	DBDriver     string        `json:"dbdriver"`
	DBHost       string        `json:"dbhost"`
	DBPort       uint16        `json:"dbport"`
	DBName       string        `json:"dbname"`
	DBUSER       string        `json:"dbuser"`
	DBPass       string        `json:"dbpass"`
	DBSSLMode    string        `json:"dbsslmode"`
	APIToken     string        `json:"-"`
	LogLevel     string        `json:"loglevel"`
	UnitCacheTTL time.Duration `json:"unitcachettl"`
}

var config *Config
var once sync.Once

const defaultUnitCacheTTL = 10 * time.Minute

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// A missing .env is normal in containers where env is injected directly.
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file loaded: %v", err)
		}

		appPort, _ := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
		dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)

		cacheTTL := defaultUnitCacheTTL
		if v := os.Getenv("UNIT_CACHE_TTL"); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				cacheTTL = d
			}
		}

		config = &Config{
			AppName:      os.Getenv("APPNAME"),
			AppEnv:       os.Getenv("APPENV"),
			AppPort:      uint16(appPort),
			GinMode:      os.Getenv("GINMODE"),
			DBDriver:     strings.ToLower(os.Getenv("DBDRIVER")),
			DBHost:       os.Getenv("DBHOST"),
			DBPort:       uint16(dbPort),
			DBName:       os.Getenv("DBNAME"),
			DBUSER:       os.Getenv("DBUSER"),
			DBPass:       os.Getenv("DBPASS"),
			DBSSLMode:    os.Getenv("DBSSLMODE"),
			APIToken:     os.Getenv("APITOKEN"),
			LogLevel:     os.Getenv("LOG_LEVEL"),
			UnitCacheTTL: cacheTTL,
		}
		if config.AppName == "" {
			config.AppName = "rental-unit-registry"
		}
		if config.AppPort == 0 {
			config.AppPort = 8080
		}
		if config.GinMode == "" {
			config.GinMode = "release"
		}
	})
	return config
}

// ConnectDatabase opens the GORM connection selected by DBDRIVER.
// APPENV=test always uses an in-memory SQLite database.
func ConnectDatabase() (*gorm.DB, error) {
	cfg := LoadConfig()

	var dialector gorm.Dialector
	switch {
	case os.Getenv("APPENV") == "test" || cfg.AppEnv == "test":
		dialector = sqlite.Open("file::memory:?cache=shared")
	case cfg.DBDriver == "postgres":
		dialector = postgres.Open(postgresDSN(cfg))
	default:
		dialector = mysql.Open(mysqlDSN(cfg))
	}

	// TranslateError maps unique-index violations to gorm.ErrDuplicatedKey on every driver.
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func mysqlDSN(cfg *Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

func postgresDSN(cfg *Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	port := cfg.DBPort
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		cfg.DBHost, cfg.DBUSER, cfg.DBPass, cfg.DBName, port, sslMode)
}
