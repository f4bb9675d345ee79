// Package migration renders the canonical schema for any supported engine
// and applies it to a connected database.
//
// The rendered DDL uses CREATE TABLE IF NOT EXISTS and no history table is
// kept, so applying it again is harmless.
package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"testing/fstest"

	"github.com/leapstack-labs/polydb/pkg/adapter"
	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/leapstack-labs/polydb/pkg/dialect"
	"github.com/pressly/goose/v3"
)

// Schema is the catalog rendered for one engine.
type Schema struct {
	Engine core.EngineKind
	// Order lists table names in creation order.
	Order []string
	// Statements maps table name to its CREATE TABLE statement, without a
	// trailing semicolon.
	Statements map[string]string
}

// Render translates the catalog for engine.
func Render(engine core.EngineKind) (*Schema, error) {
	return RenderTables(Catalog(), engine)
}

// RenderTables translates tables for engine, keeping their order.
func RenderTables(tables []dialect.Table, engine core.EngineKind) (*Schema, error) {
	d, err := dialect.ForEngine(engine)
	if err != nil {
		return nil, err
	}
	s := &Schema{
		Engine:     engine,
		Order:      make([]string, 0, len(tables)),
		Statements: make(map[string]string, len(tables)),
	}
	for _, t := range tables {
		stmt, err := d.CreateTable(t, true)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.Name, err)
		}
		s.Order = append(s.Order, t.Name)
		s.Statements[t.Name] = stmt
	}
	return s, nil
}

// Script joins the statements into one init script.
func (s *Schema) Script() string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- polydb schema (%s)\n", s.Engine)
	for _, name := range s.Order {
		b.WriteString("\n")
		b.WriteString(s.Statements[name])
		b.WriteString(";\n")
	}
	return b.String()
}

// Script renders the catalog for engine as one init script.
func Script(engine core.EngineKind) (string, error) {
	s, err := Render(engine)
	if err != nil {
		return "", err
	}
	return s.Script(), nil
}

// FS exposes the schema as goose SQL migrations, one file per table.
func (s *Schema) FS() fs.FS {
	fsys := make(fstest.MapFS, len(s.Order))
	for i, name := range s.Order {
		file := fmt.Sprintf("%05d_create_%s.sql", i+1, name)
		fsys[file] = &fstest.MapFile{Data: []byte("-- +goose Up\n" + s.Statements[name] + ";\n")}
	}
	return fsys
}

var gooseDialects = map[core.EngineKind]goose.Dialect{
	core.EngineMySQL:    goose.DialectMySQL,
	core.EnginePostgres: goose.DialectPostgres,
	core.EngineSQLite:   goose.DialectSQLite3,
}

// Apply creates every catalog table missing from the database behind a.
// It returns the migration file names that ran.
func Apply(ctx context.Context, a adapter.Adapter, logger *slog.Logger) ([]string, error) {
	s, err := Render(a.Kind())
	if err != nil {
		return nil, err
	}
	return s.Apply(ctx, a, logger)
}

// Apply runs the schema through a goose provider with versioning disabled.
func (s *Schema) Apply(ctx context.Context, a adapter.Adapter, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db := a.Handle()
	if db == nil {
		return nil, &core.Error{Kind: core.KindConnection, Op: "migrate", Database: a.Config().Name, Err: core.ErrNotConnected}
	}
	gd, ok := gooseDialects[s.Engine]
	if !ok {
		return nil, &core.Error{Kind: core.KindConfig, Op: "migrate", Database: a.Config().Name, Err: core.ErrUnsupportedEngine}
	}

	provider, err := goose.NewProvider(gd, db, s.FS(),
		goose.WithDisableVersioning(true),
		goose.WithDisableGlobalRegistry(true),
		goose.WithSlog(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, &core.Error{Kind: core.KindStatement, Op: "migrate", Database: a.Config().Name, Err: err}
	}

	applied := make([]string, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Path)
	}
	logger.Info("schema applied", slog.String("database", a.Config().Name), slog.Int("tables", len(applied)))
	return applied, nil
}
