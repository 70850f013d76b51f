package extract

import (
	"context"
	"fmt"
)

// Query is one stored query found inside an Access database file.
type Query struct {
	Name string `json:"query_name"`
	Kind string `json:"query_type"`
	SQL  string `json:"sql_text"`
}

// Module is one VBA code module found inside an Access database file.
type Module struct {
	Name string `json:"module_name"`
	Kind string `json:"module_type"`
	Code string `json:"code"`
}

// Extractor turns an already-downloaded local file into structured query and
// module records. Implementations filter out system-reserved names ("~" and
// "MSys" prefixes) and empty module bodies; callers persist exactly what they
// receive.
type Extractor interface {
	Extract(ctx context.Context, localPath string) (queries []Query, modules []Module, err error)
}

// QueryKind maps a DAO QueryDef type code to a readable query kind.
func QueryKind(code int) string {
	switch code {
	case 0:
		return "Select"
	case 48:
		return "Union"
	case 80:
		return "DDL"
	case 96:
		return "Crosstab"
	case 112:
		return "Action (Delete)"
	case 128:
		return "Action (Update)"
	case 144:
		return "Action (Append)"
	case 240:
		return "Action (Make-Table)"
	default:
		return fmt.Sprintf("Other (%d)", code)
	}
}

// ModuleKind maps a VBA component type code to a readable module kind.
func ModuleKind(code int) string {
	switch code {
	case 1:
		return "Standard"
	case 2:
		return "Class"
	case 3:
		return "Form"
	case 100:
		return "Document"
	default:
		return fmt.Sprintf("Other (%d)", code)
	}
}
