package graph

import (
	"context"
	"strings"

	apperrors "groupme-analyzer/backend/pkg/errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// SchemaVersion marks the constraint set below as applied
const SchemaVersion = "analysis_schema_v1"

type migration struct {
	name  string
	query string
}

var migrations = []migration{
	{
		name: "constraints",
		query: `
			CREATE CONSTRAINT group_id_unique IF NOT EXISTS FOR (g:Group) REQUIRE g.id IS UNIQUE;
			CREATE CONSTRAINT member_id_unique IF NOT EXISTS FOR (m:Member) REQUIRE m.id IS UNIQUE;
			CREATE CONSTRAINT analysis_id_unique IF NOT EXISTS FOR (a:Analysis) REQUIRE a.id IS UNIQUE;
		`,
	},
	{
		name: "indexes",
		query: `
			// newest analyses per group
			CREATE INDEX analysis_created_at IF NOT EXISTS FOR (a:Analysis) ON (a.created_at);
		`,
	},
}

// SchemaApplied reports whether EnsureSchema has already run against this database
func (r *Repository) SchemaApplied(ctx context.Context) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `MATCH (m:Migration {version: $version}) RETURN m.applied_at`,
		map[string]interface{}{"version": SchemaVersion})
	if err != nil {
		return false, apperrors.NewGraphQueryFailed("check schema", err)
	}
	return result.Next(ctx), nil
}

// EnsureSchema creates the uniqueness constraints and indexes analyses rely on.
// Every statement is idempotent, so running it twice is harmless.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for i, m := range migrations {
		r.logger.Info("Running migration",
			zap.Int("step", i+1),
			zap.Int("total", len(migrations)),
			zap.String("name", m.name),
		)
		// Schema statements cannot share a transaction, so each runs on its own
		for _, stmt := range splitStatements(m.query) {
			if _, err := session.Run(ctx, stmt, nil); err != nil {
				return apperrors.NewGraphQueryFailed(m.name, err)
			}
		}
	}

	_, err := session.Run(ctx, `
		MERGE (m:Migration {version: $version})
		SET m.applied_at = datetime()
	`, map[string]interface{}{"version": SchemaVersion})
	if err != nil {
		return apperrors.NewGraphQueryFailed("mark schema", err)
	}
	return nil
}

// splitStatements turns a script into statements, dropping // comments and blanks
func splitStatements(script string) []string {
	lines := strings.Split(script, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "//"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}

	var statements []string
	for _, part := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
