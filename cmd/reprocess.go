package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"accmeta/src/fsutil"
	"accmeta/src/infrastructure/integrations/accessextract"
	jobctrl "accmeta/src/infrastructure/job"
	"accmeta/src/storage/minioctrl"
	"accmeta/src/storage/postgres/resultctrl"
)

var reprocessCmd = &cobra.Command{
	Use:   "reprocess <job-id>",
	Short: "Re-run a failed import job",
	Long: `The reprocess command drives one failed import job through the pipeline
again. The new attempt writes a fresh batch of extracted records under the
same job id; failed jobs are never retried automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: runReprocess,
}

func init() {
	rootCmd.AddCommand(reprocessCmd)
	settingDefaultConfig()
}

func runReprocess(cmd *cobra.Command, args []string) error {
	if err := requireConfig(
		"postgres.host", "postgres.db",
		"minio.endpoint", "extractor.url",
	); err != nil {
		return err
	}

	jobID := args[0]

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		viper.GetString("postgres.host"),
		viper.GetString("postgres.user"),
		viper.GetString("postgres.password"),
		viper.GetString("postgres.db"),
		viper.GetString("postgres.port"))
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %v", err)
	}
	defer sqlDB.Close()

	minioService, err := minioctrl.NewMinioService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize minio service: %v", err)
	}

	jobRepo := jobctrl.NewPostgresJobRepository(db)

	ctx := context.Background()
	job, err := jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if job.Status != jobctrl.JobStatusFailed {
		return fmt.Errorf("job %s is %s, only failed jobs can be reprocessed", jobID, job.Status)
	}

	processor := jobctrl.NewProcessor(
		jobRepo,
		resultctrl.NewResultService(db),
		minioService,
		accessextract.NewService(viper.GetString("extractor.url"), &http.Client{}),
		fsutil.NewLocalFileStore(),
		os.TempDir(),
	)

	if err := processor.Reprocess(ctx, *job); err != nil {
		return fmt.Errorf("failed to reprocess job: %w", err)
	}

	final, err := jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to reload job: %w", err)
	}
	if final == nil {
		return fmt.Errorf("job disappeared after reprocessing: %s", jobID)
	}

	fmt.Printf("Job %s finished with status %s (%d queries, %d modules)\n",
		final.ID, final.Status, final.QueryCount, final.ModuleCount)
	return nil
}
