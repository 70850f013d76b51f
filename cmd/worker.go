package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"accmeta/src/fsutil"
	"accmeta/src/infrastructure/integrations/accessextract"
	jobctrl "accmeta/src/infrastructure/job"
	"accmeta/src/log"
	"accmeta/src/storage/minioctrl"
	"accmeta/src/storage/postgres/resultctrl"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the import job worker",
	Long: `The worker command starts the polling loop that claims pending import
jobs, downloads the uploaded Access file, runs metadata extraction and
persists the results.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
	settingDefaultConfig()
}

func runWorker(cmd *cobra.Command, args []string) error {
	if err := requireConfig(
		"postgres.host", "postgres.db",
		"minio.endpoint", "minio.access_bucket",
		"extractor.url",
	); err != nil {
		return err
	}

	// Initialize PostgreSQL connection
	host := viper.GetString("postgres.host")
	user := viper.GetString("postgres.user")
	password := viper.GetString("postgres.password")
	dbname := viper.GetString("postgres.db")
	port := viper.GetString("postgres.port")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, password, dbname, port)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Get underlying *sql.DB for cleanup
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %v", err)
	}
	defer sqlDB.Close()

	// Initialize MinioService
	minioService, err := minioctrl.NewMinioService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize minio service: %v", err)
	}

	// Initialize extraction service client
	extractor := accessextract.NewService(viper.GetString("extractor.url"), &http.Client{})

	fileStore := fsutil.NewLocalFileStore()
	tmpDir := viper.GetString("worker.tmp_dir")
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	if err := fileStore.MakeDirectory(tmpDir); err != nil {
		return fmt.Errorf("failed to create worker temp directory: %v", err)
	}

	// Initialize repositories and the processor
	jobRepo := jobctrl.NewPostgresJobRepository(db)
	resultService := resultctrl.NewResultService(db)
	processor := jobctrl.NewProcessor(
		jobRepo,
		resultService,
		minioService,
		extractor,
		fileStore,
		tmpDir,
	)

	scheduler := jobctrl.NewScheduler(
		jobRepo,
		processor,
		time.Duration(viper.GetInt("worker.poll_interval_ms"))*time.Millisecond,
		viper.GetInt("worker.batch_size"),
		viper.GetInt("worker.concurrency"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		scheduler.Run(ctx)
	}()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c

	log.Info("shutting down worker")
	cancel()
	<-done

	return nil
}
