package cmd

import (
	"fmt"

	"github.com/spf13/viper"
)

func settingDefaultConfig() {
	// Enable automatic environment variable binding
	viper.AutomaticEnv()

	// Map environment variables to Viper keys for PostgreSQL
	viper.BindEnv("postgres.host", "POSTGRES_HOST")
	viper.BindEnv("postgres.port", "POSTGRES_PORT")
	viper.BindEnv("postgres.user", "POSTGRES_USER")
	viper.BindEnv("postgres.password", "POSTGRES_PASSWORD")
	viper.BindEnv("postgres.db", "POSTGRES_DB")

	// Map environment variables to Viper keys for MinIO and Server
	viper.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("minio.use_ssl", "MINIO_USE_SSL")
	viper.BindEnv("minio.access_bucket", "MINIO_ACCESS_BUCKET")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")

	// Map environment variables to Viper keys for the worker and extractor
	viper.BindEnv("worker.poll_interval_ms", "WORKER_POLL_MS")
	viper.BindEnv("worker.batch_size", "WORKER_BATCH_SIZE")
	viper.BindEnv("worker.concurrency", "WORKER_CONCURRENCY")
	viper.BindEnv("worker.tmp_dir", "WORKER_TMP_DIR")
	viper.BindEnv("extractor.url", "EXTRACTOR_URL")

	// Set default values for PostgreSQL
	viper.SetDefault("postgres.host", "localhost")
	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("postgres.user", "postgres")
	viper.SetDefault("postgres.password", "postgres")
	viper.SetDefault("postgres.db", "accmeta")

	// Set default values for MinIO and Server
	viper.SetDefault("minio.endpoint", "localhost:9000")
	viper.SetDefault("minio.access_key", "minioadmin")
	viper.SetDefault("minio.secret_key", "minioadmin")
	viper.SetDefault("minio.use_ssl", false)
	viper.SetDefault("minio.access_bucket", "access-files")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.shutdown_timeout", "5s")

	// Set default values for the worker and extractor
	viper.SetDefault("worker.poll_interval_ms", 4000)
	viper.SetDefault("worker.batch_size", 10)
	viper.SetDefault("worker.concurrency", 1)
	viper.SetDefault("worker.tmp_dir", "")
	viper.SetDefault("extractor.url", "http://extractor:8081")
}

// requireConfig is the only startup-fatal condition: a required connection
// parameter resolved to an empty value.
func requireConfig(keys ...string) error {
	for _, key := range keys {
		if viper.GetString(key) == "" {
			return fmt.Errorf("missing required configuration: %s", key)
		}
	}
	return nil
}
