package core

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// default subjects offered by the entry form and the CSV import/export
var defaultSubjects = []string{"Mathematics", "English", "Physics", "Chemistry", "Biology"}

type (
	Config struct {
		AppName      string
		Env          string // DEV (local; default), TEST, QA, PROD
		Debug        bool
		TestMode     bool
		Build        string
		RollbarToken string

		// DataPath is the JSON file used when the database is unavailable.
		DataPath   string
		Subjects   []string
		GradeScale string // "A:90,B:80,C:70,D:60,F:0"

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host            string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		User          string
		Password      string
		Name          string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		// Disabled skips the database entirely and starts in file fallback mode.
		Disabled       bool
		ConnectTimeout time.Duration
		QueryTimeout   time.Duration
		LogQueries     bool
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
}

// env var -> config key
var envBindings = map[string]string{
	"debug":                  "DEBUG",
	"appName":                "APP_NAME",
	"build":                  "BUILD",
	"rollbarToken":           "ROLLBAR_TOKEN",
	"dataPath":               "DATA_PATH",
	"subjects":               "SUBJECTS",
	"gradeScale":             "GRADE_SCALE",
	"server.host":            "SERVER_HOST",
	"server.shutdownTimeout": "SERVER_SHUTDOWN_TIMEOUT",
	"db.engine":              "DB_ENGINE",
	"db.host":                "DB_HOST",
	"db.port":                "DB_PORT",
	"db.user":                "DB_USER",
	"db.password":            "DB_PASSWORD",
	"db.name":                "DB_NAME",
	"db.adminUser":           "DB_ADMIN_USER",
	"db.adminPassword":       "DB_ADMIN_PASSWORD",
	"db.disableTLS":          "DB_DISABLE_TLS",
	"db.disabled":            "DB_DISABLED",
	"db.connectTimeout":      "DB_CONNECT_TIMEOUT",
	"db.queryTimeout":        "DB_QUERY_TIMEOUT",
	"db.logQueries":          "DB_LOG_QUERIES",
}

// LoadConfig reads the configuration from the environment (optionally seeded by .env files) with fixed defaults.
func LoadConfig() (*Config, error) {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// load .env files if they exist (ignore if they do not)
	for _, path := range []string{".env", filepath.Join("config", ".env."+strings.ToLower(env))} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, errors.Wrapf(err, "loading %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat %s", path)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("appName", "Gradebook")
	v.SetDefault("build", "dev")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("dataPath", filepath.Join("data", "students.json"))
	v.SetDefault("subjects", strings.Join(defaultSubjects, ","))
	v.SetDefault("gradeScale", "A:90,B:80,C:70,D:60,F:0")
	v.SetDefault("server.host", ":8080")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("db.engine", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "student_grades")
	v.SetDefault("db.adminUser", "")
	v.SetDefault("db.adminPassword", "")
	v.SetDefault("db.disableTLS", true)
	v.SetDefault("db.disabled", false)
	v.SetDefault("db.connectTimeout", 5*time.Second)
	v.SetDefault("db.queryTimeout", 10*time.Second)
	v.SetDefault("db.logQueries", false)

	for key, envVar := range envBindings {
		if err := v.BindEnv(key, envVar); err != nil {
			return nil, errors.Wrapf(err, "binding %s", envVar)
		}
	}

	conf := &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     env == "TEST",
		Build:        v.GetString("build"),
		RollbarToken: v.GetString("rollbarToken"),
		DataPath:     v.GetString("dataPath"),
		Subjects:     splitList(v.GetString("subjects")),
		GradeScale:   v.GetString("gradeScale"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:         v.GetString("db.engine"),
			Host:           v.GetString("db.host"),
			Port:           v.GetInt("db.port"),
			User:           v.GetString("db.user"),
			Password:       v.GetString("db.password"),
			Name:           v.GetString("db.name"),
			AdminUser:      v.GetString("db.adminUser"),
			AdminPassword:  v.GetString("db.adminPassword"),
			DisableTLS:     v.GetBool("db.disableTLS"),
			Disabled:       v.GetBool("db.disabled"),
			ConnectTimeout: v.GetDuration("db.connectTimeout"),
			QueryTimeout:   v.GetDuration("db.queryTimeout"),
			LogQueries:     v.GetBool("db.logQueries"),
		},
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (conf *Config) validate() error {
	if conf.DataPath == "" {
		return errors.New("config: DATA_PATH cannot be empty")
	}
	if len(conf.Subjects) == 0 {
		return errors.New("config: SUBJECTS cannot be empty")
	}
	if conf.Database.Port <= 0 || conf.Database.Port > 65535 {
		return fmt.Errorf("config: invalid DB_PORT %d", conf.Database.Port)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = CleanString(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}
