package domain

// SQLResult is the outcome of ExecuteSQL. Rows keep whatever column order the
// driver reported; Count is len(Rows).
type SQLResult struct {
	Rows  []map[string]any `json:"rows"`
	Count int              `json:"count"`
}

// NewSQLResult wraps rows, normalizing nil to an empty slice so the JSON
// payload always carries an array.
func NewSQLResult(rows []map[string]any) *SQLResult {
	if rows == nil {
		rows = []map[string]any{}
	}
	return &SQLResult{Rows: rows, Count: len(rows)}
}

// TableColumn describes one column of a table.
type TableColumn struct {
	Name         string  `json:"name"`
	DataType     string  `json:"data_type"`
	IsNullable   bool    `json:"is_nullable"`
	DefaultValue *string `json:"default,omitempty"`
}

// TableIndex describes an index and the columns it covers, in key order.
type TableIndex struct {
	Name      string   `json:"name"`
	Columns   []string `json:"columns"`
	IsUnique  bool     `json:"is_unique"`
	IsPrimary bool     `json:"is_primary"`
}

// ProcedureParameter is a single argument of a stored procedure or function.
type ProcedureParameter struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Mode     string `json:"mode,omitempty"`
}

// StoredProcedure describes a stored procedure or function.
type StoredProcedure struct {
	Name       string               `json:"name"`
	Schema     string               `json:"schema"`
	Kind       string               `json:"kind"`
	Parameters []ProcedureParameter `json:"parameters"`
	ReturnType string               `json:"return_type,omitempty"`
	Language   string               `json:"language,omitempty"`
	Definition string               `json:"definition,omitempty"`
}
