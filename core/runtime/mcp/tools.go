package mcp

import (
	"context"

	"github.com/hyperterse/dbmcp/core/domain/interfaces"
	"github.com/hyperterse/dbmcp/core/observability"
)

type param struct {
	name        string
	description string
	required    bool
}

type tool struct {
	name        string
	description string
	params      []param
	run         func(ctx context.Context, svc interfaces.SQLService, args map[string]string) (any, error)
}

func (t tool) inputSchema() map[string]any {
	properties := make(map[string]any, len(t.params))
	required := make([]string, 0, len(t.params))
	for _, p := range t.params {
		properties[p.name] = map[string]any{
			"type":        "string",
			"description": p.description,
		}
		if p.required {
			required = append(required, p.name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var schemaParam = param{name: "schema", description: "Schema name. Defaults to the connection's default schema."}

func toolset(readOnly bool) []tool {
	executeDescription := "Execute one or more SQL statements separated by ';' and return the rows they produce."
	if readOnly {
		executeDescription += " The server is read-only: only statements that start with a read keyword (SELECT, WITH, EXPLAIN and the like) are accepted."
	}

	return []tool{
		{
			name:        "execute_sql",
			description: executeDescription,
			params:      []param{{name: "sql", description: "SQL to execute", required: true}},
			run: func(ctx context.Context, svc interfaces.SQLService, args map[string]string) (any, error) {
				result, err := svc.ExecuteSQL(ctx, args["sql"])
				if err != nil {
					return nil, err
				}
				observability.RecordRows(ctx, string(svc.Dialect()), result.Count)
				return result, nil
			},
		},
		{
			name:        "list_schemas",
			description: "List the schemas of the connected database.",
			run: func(ctx context.Context, svc interfaces.SQLService, _ map[string]string) (any, error) {
				schemas, err := svc.ListSchemas(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{"schemas": schemas, "count": len(schemas)}, nil
			},
		},
		{
			name:        "list_tables",
			description: "List the tables of a schema.",
			params:      []param{schemaParam},
			run: func(ctx context.Context, svc interfaces.SQLService, args map[string]string) (any, error) {
				schema, tables, err := svc.ListTables(ctx, args["schema"])
				if err != nil {
					return nil, err
				}
				return map[string]any{"schema": schema, "tables": tables, "count": len(tables)}, nil
			},
		},
		{
			name:        "describe_table",
			description: "Describe the columns and indexes of a table.",
			params: []param{
				{name: "table", description: "Table name", required: true},
				schemaParam,
			},
			run: func(ctx context.Context, svc interfaces.SQLService, args map[string]string) (any, error) {
				return svc.DescribeTable(ctx, args["schema"], args["table"])
			},
		},
		{
			name:        "list_stored_procedures",
			description: "List the stored procedures and functions of a schema. Not available on SQLite or ANSI connections.",
			params:      []param{schemaParam},
			run: func(ctx context.Context, svc interfaces.SQLService, args map[string]string) (any, error) {
				schema, procedures, err := svc.ListStoredProcedures(ctx, args["schema"])
				if err != nil {
					return nil, err
				}
				return map[string]any{"schema": schema, "procedures": procedures, "count": len(procedures)}, nil
			},
		},
		{
			name:        "describe_stored_procedure",
			description: "Describe a stored procedure or function, including its parameters and definition.",
			params: []param{
				{name: "name", description: "Procedure name", required: true},
				schemaParam,
			},
			run: func(ctx context.Context, svc interfaces.SQLService, args map[string]string) (any, error) {
				procedure, err := svc.DescribeStoredProcedure(ctx, args["schema"], args["name"])
				if err != nil {
					return nil, err
				}
				return map[string]any{"procedure": procedure}, nil
			},
		},
	}
}
