// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file and environment
// variables, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// InitConfig initializes the application's configuration using Viper.
// It sets up default values, defines configuration search paths, and enables
// reading from environment variables. This function is designed to be called
// once at application startup.
func InitConfig() error {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/caselaw/")
	viper.AddConfigPath("$HOME/.caselaw")

	const defaultUA = "caselaw-pipeline/1.0 (+https://github.com/lexel-search/caselaw-pipeline)"
	viper.SetDefault("logging.development", false)

	viper.SetDefault("http.user_agent", defaultUA)
	viper.SetDefault("http.timeout_seconds", 30)
	viper.SetDefault("http.rate_limit_per_domain", 4)

	viper.SetDefault("crawler.formats", []string{"html", "pdf"})
	viper.SetDefault("crawler.batch_size", 50)
	viper.SetDefault("crawler.workers", 10)

	viper.SetDefault("db.path", "data/caselaw.db")
	viper.SetDefault("docs.dir", "doc_dir")

	viper.SetDefault("render.format", "tiff")
	viper.SetDefault("render.resolution", 300)

	viper.SetDefault("extract.doc_names", []string{"Judgment"})

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.addr", ":9090")

	viper.SetEnvPrefix("CASELAW") // e.g., CASELAW_DB_PATH=/var/lib/caselaw.db
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Not fatal: defaults and environment variables still apply.
			return nil
		}
		return err
	}
	return nil
}
