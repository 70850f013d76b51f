package resultctrl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"accmeta/src/core/digest"
	"accmeta/src/core/extract"
	jobctrl "accmeta/src/infrastructure/job"
)

// Query is one persisted stored-query record extracted from an Access file.
type Query struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	ImportJobID    string    `gorm:"type:uuid;not null;index" json:"import_job_id"`
	ProjectID      string    `gorm:"type:uuid;not null;index" json:"project_id"`
	AccessFilename string    `gorm:"not null" json:"access_filename"`
	QueryName      string    `gorm:"not null" json:"query_name"`
	QueryType      *string   `json:"query_type,omitempty"`
	SQLText        string    `gorm:"column:sql_text;not null" json:"sql_text"`
	SQLHash        string    `gorm:"column:sql_hash;not null" json:"sql_hash"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Query) TableName() string {
	return "queries"
}

// VbaModule is one persisted VBA code module extracted from an Access file.
type VbaModule struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	ImportJobID    string    `gorm:"type:uuid;not null;index" json:"import_job_id"`
	ProjectID      string    `gorm:"type:uuid;not null;index" json:"project_id"`
	AccessFilename string    `gorm:"not null" json:"access_filename"`
	ModuleName     string    `gorm:"not null" json:"module_name"`
	ModuleType     string    `gorm:"not null" json:"module_type"`
	Code           string    `gorm:"not null" json:"code"`
	CodeHash       string    `gorm:"not null" json:"code_hash"`
	CreatedAt      time.Time `json:"created_at"`
}

func (VbaModule) TableName() string {
	return "vba_modules"
}

type ResultService struct {
	db *gorm.DB
}

func NewResultService(db *gorm.DB) *ResultService {
	return &ResultService{db: db}
}

// SaveBatch writes all of one job's extracted records in a single
// transaction. Rows are append-only per job: a re-run of a failed job writes
// a fresh batch under the same job id.
func (s *ResultService) SaveBatch(ctx context.Context, job *jobctrl.ImportJob, queries []extract.Query, modules []extract.Module) error {
	queryRows := QueryRows(job, queries)
	moduleRows := ModuleRows(job, modules)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(queryRows) > 0 {
			if err := tx.Create(&queryRows).Error; err != nil {
				return fmt.Errorf("failed to save queries: %w", err)
			}
		}
		if len(moduleRows) > 0 {
			if err := tx.Create(&moduleRows).Error; err != nil {
				return fmt.Errorf("failed to save modules: %w", err)
			}
		}
		return nil
	})
}

// ListQueriesByJob returns a job's query records ordered by query name.
func (s *ResultService) ListQueriesByJob(ctx context.Context, jobID string) ([]Query, error) {
	var rows []Query
	result := s.db.WithContext(ctx).
		Where("import_job_id = ?", jobID).
		Order("query_name ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list queries: %w", result.Error)
	}
	return rows, nil
}

// ListModulesByJob returns a job's module records ordered by module name.
func (s *ResultService) ListModulesByJob(ctx context.Context, jobID string) ([]VbaModule, error) {
	var rows []VbaModule
	result := s.db.WithContext(ctx).
		Where("import_job_id = ?", jobID).
		Order("module_name ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list modules: %w", result.Error)
	}
	return rows, nil
}

// QueryRows builds persistable rows from extractor output. The digest is a
// pure function of the query text, so unchanged content re-extracted on a
// later attempt hashes identically.
func QueryRows(job *jobctrl.ImportJob, queries []extract.Query) []Query {
	rows := make([]Query, 0, len(queries))
	for _, q := range queries {
		var queryType *string
		if q.Kind != "" {
			kind := q.Kind
			queryType = &kind
		}
		rows = append(rows, Query{
			ID:             uuid.NewString(),
			ImportJobID:    job.ID,
			ProjectID:      job.ProjectID,
			AccessFilename: job.AccessFilename,
			QueryName:      q.Name,
			QueryType:      queryType,
			SQLText:        q.SQL,
			SQLHash:        digest.Text(q.SQL),
		})
	}
	return rows
}

// ModuleRows builds persistable rows from extractor output.
func ModuleRows(job *jobctrl.ImportJob, modules []extract.Module) []VbaModule {
	rows := make([]VbaModule, 0, len(modules))
	for _, m := range modules {
		rows = append(rows, VbaModule{
			ID:             uuid.NewString(),
			ImportJobID:    job.ID,
			ProjectID:      job.ProjectID,
			AccessFilename: job.AccessFilename,
			ModuleName:     m.Name,
			ModuleType:     m.Kind,
			Code:           m.Code,
			CodeHash:       digest.Text(m.Code),
		})
	}
	return rows
}
