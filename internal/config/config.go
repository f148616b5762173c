package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	AutoMigrate         bool
	JWTSecret           string
	JWTTokenTTL         time.Duration
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	ReportLocation      *time.Location // month boundaries for matching completed installations
	SLADays             int            // completion threshold for the SLA and branch performance reports

	TargetViewRoles   []string
	TargetWriteRoles  []string
	TargetDeleteRoles []string
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	v.SetDefault("REPORT_TIMEZONE", "UTC")
	v.SetDefault("SLA_DEFAULT_DAYS", 22)
	v.SetDefault("TARGET_VIEW_ROLES", "admin,manager,user")
	v.SetDefault("TARGET_WRITE_ROLES", "admin,manager")
	v.SetDefault("TARGET_DELETE_ROLES", "admin")

	loc, err := time.LoadLocation(v.GetString("REPORT_TIMEZONE"))
	if err != nil {
		return nil, err
	}
	slaDays := v.GetInt("SLA_DEFAULT_DAYS")
	if slaDays < 1 {
		return nil, fmt.Errorf("SLA_DEFAULT_DAYS must be at least 1, got %d", slaDays)
	}

	dbURL := v.GetString("DATABASE_URL")
	if env := v.GetString("APP_ENV"); env == "test" && v.GetString("DATABASE_URL_TEST") != "" {
		dbURL = v.GetString("DATABASE_URL_TEST")
	}

	return &Config{
		Env:                 v.GetString("APP_ENV"),
		Port:                v.GetString("PORT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            v.GetString("REDIS_URL"),
		AutoMigrate:         v.GetBool("AUTO_MIGRATE"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		JWTTokenTTL:         time.Duration(v.GetInt("JWT_ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(v.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		ReportLocation:      loc,
		SLADays:             slaDays,
		TargetViewRoles:     splitList(v.GetString("TARGET_VIEW_ROLES")),
		TargetWriteRoles:    splitList(v.GetString("TARGET_WRITE_ROLES")),
		TargetDeleteRoles:   splitList(v.GetString("TARGET_DELETE_ROLES")),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
