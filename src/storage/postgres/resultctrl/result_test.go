package resultctrl_test

import (
	"testing"

	"accmeta/src/core/digest"
	"accmeta/src/core/extract"
	jobctrl "accmeta/src/infrastructure/job"
	"accmeta/src/storage/postgres/resultctrl"
)

func sampleJob() *jobctrl.ImportJob {
	return &jobctrl.ImportJob{
		ID:             "6f1b49be-0c7a-4c42-9a15-0d6f3a6c66c1",
		ProjectID:      "2fd7a6a0-08fb-41cf-8a30-5a34f7a1a1bd",
		AccessFilename: "sales.accdb",
	}
}

func TestQueryRows(t *testing.T) {
	job := sampleJob()
	queries := []extract.Query{
		{Name: "qryWestRegion", Kind: "Select", SQL: "SELECT * FROM Sales WHERE Region = 'West';"},
		{Name: "qryCleanup", Kind: "", SQL: "DELETE FROM Staging;"},
	}

	rows := resultctrl.QueryRows(job, queries)
	if len(rows) != 2 {
		t.Fatalf("QueryRows() returned %d rows, want 2", len(rows))
	}

	first := rows[0]
	if first.ImportJobID != job.ID || first.ProjectID != job.ProjectID {
		t.Errorf("row not tied to job: job_id=%s project_id=%s", first.ImportJobID, first.ProjectID)
	}
	if first.AccessFilename != "sales.accdb" {
		t.Errorf("AccessFilename = %q, want sales.accdb", first.AccessFilename)
	}
	if first.QueryType == nil || *first.QueryType != "Select" {
		t.Errorf("QueryType = %v, want Select", first.QueryType)
	}
	if first.SQLHash != digest.Text(first.SQLText) {
		t.Errorf("SQLHash = %s, want digest of text", first.SQLHash)
	}
	if first.ID == "" || first.ID == rows[1].ID {
		t.Errorf("rows must get distinct non-empty ids, got %q and %q", first.ID, rows[1].ID)
	}

	// An unclassified query keeps a NULL kind instead of an empty string.
	if rows[1].QueryType != nil {
		t.Errorf("QueryType for unclassified query = %v, want nil", rows[1].QueryType)
	}
}

func TestQueryRowsDigestIndependentOfOrder(t *testing.T) {
	job := sampleJob()
	a := extract.Query{Name: "qryA", Kind: "Select", SQL: "SELECT 1;"}
	b := extract.Query{Name: "qryB", Kind: "Select", SQL: "SELECT 2;"}

	forward := resultctrl.QueryRows(job, []extract.Query{a, b})
	reversed := resultctrl.QueryRows(job, []extract.Query{b, a})

	if forward[0].SQLHash != reversed[1].SQLHash {
		t.Errorf("digest changed with extraction order: %s != %s", forward[0].SQLHash, reversed[1].SQLHash)
	}
}

func TestModuleRows(t *testing.T) {
	job := sampleJob()
	modules := []extract.Module{
		{Name: "modHelpers", Kind: "Standard", Code: "Option Explicit\nSub Main()\nEnd Sub"},
	}

	rows := resultctrl.ModuleRows(job, modules)
	if len(rows) != 1 {
		t.Fatalf("ModuleRows() returned %d rows, want 1", len(rows))
	}

	row := rows[0]
	if row.ImportJobID != job.ID {
		t.Errorf("ImportJobID = %s, want %s", row.ImportJobID, job.ID)
	}
	if row.ModuleType != "Standard" {
		t.Errorf("ModuleType = %q, want Standard", row.ModuleType)
	}
	if row.CodeHash != digest.Text(row.Code) {
		t.Errorf("CodeHash = %s, want digest of code", row.CodeHash)
	}
}
