package configuration

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/vialuz/sac-dashboard/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func Use() *Configuration {
	return singleton()
}

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"dashboard_sac"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type UploadOptions struct {
	// MaxFileSizeBytes caps the raw payload before any parsing happens.
	MaxFileSizeBytes int64 `env:"UPLOAD_MAX_FILE_SIZE_BYTES" envDefault:"52428800"`
}

type WorkerOptions struct {
	DropDir      string        `env:"WORKER_DROP_DIR" envDefault:"./ingest"`
	PollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"10s"`
}

type Configuration struct {
	Database DatabaseOptions
	Upload   UploadOptions
	Worker   WorkerOptions

	Address        string   `env:"ADDRESS" envDefault:"0.0.0.0:8000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	Env            string   `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	LogPath        string   `env:"LOG_PATH" envDefault:"./logs/app.log"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if n == 0 && c.Env == Production {
		log.Println("no .env files found, relying on process environment")
	}
	c.Database.Opts = c.Database.ConnectionString()

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		logger = logging.ConsoleLogger(c.LogrusLogLevel())
	} else {
		c.logFile = f
	}
	c.logger = logger
	return nil
}

func (c *Configuration) Unload() {
	if c.logFile != nil {
		_ = c.logFile.Close()
		c.logFile = nil
	}
}
