// Package query is the façade the rest of the application uses to run SQL
// against a logical database. Every call resolves the name through the
// connection registry and delegates to the adapter.
package query

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/leapstack-labs/polydb/pkg/adapter"
	"github.com/leapstack-labs/polydb/pkg/core"
	"golang.org/x/sync/errgroup"
)

// DefaultPreviewLimit bounds PreviewTableData when no limit is given.
const DefaultPreviewLimit = 100

// statsConcurrency caps concurrent TableInfo calls in GetDatabaseStats.
const statsConcurrency = 4

// Connections resolves logical names to connected adapters.
// *registry.Registry satisfies it.
type Connections interface {
	GetConnection(ctx context.Context, name string) (adapter.Adapter, error)
	TestConnection(ctx context.Context, name string) bool
	Names() []string
	CloseAll() error
}

// Service runs queries and introspection against named databases.
type Service struct {
	conns  Connections
	logger *slog.Logger
}

// NewService creates a Service over conns. A nil logger discards output.
func NewService(conns Connections, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{conns: conns, logger: logger}
}

// Pagination describes one page of a paged query.
type Pagination struct {
	Page       int   `json:"page" yaml:"page"`
	PageSize   int   `json:"pageSize" yaml:"pageSize"`
	Total      int64 `json:"total" yaml:"total"`
	TotalPages int   `json:"totalPages" yaml:"totalPages"`
}

// PagedResult is one page of rows plus paging metadata.
type PagedResult struct {
	Columns    []string         `json:"columns" yaml:"columns"`
	Data       []map[string]any `json:"data" yaml:"data"`
	Pagination Pagination       `json:"pagination" yaml:"pagination"`
}

// Validation is the outcome of ValidateQuery.
type Validation struct {
	IsValid bool     `json:"isValid" yaml:"isValid"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// TablePreview holds the first rows of a table and its full row count.
type TablePreview struct {
	Columns   []string         `json:"columns" yaml:"columns"`
	Data      []map[string]any `json:"data" yaml:"data"`
	TotalRows int64            `json:"totalRows" yaml:"totalRows"`
}

// TableStats summarizes one table.
type TableStats struct {
	TableName   string            `json:"tableName" yaml:"tableName"`
	ColumnCount int               `json:"columnCount" yaml:"columnCount"`
	Columns     []core.ColumnInfo `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// DatabaseStats summarizes a database.
type DatabaseStats struct {
	TableCount int          `json:"tableCount" yaml:"tableCount"`
	Tables     []TableStats `json:"tables" yaml:"tables"`
}

// ConnectionStatus reports the health of one logical database.
type ConnectionStatus struct {
	Name   string               `json:"name" yaml:"name"`
	Status string               `json:"status" yaml:"status"`
	Info   *core.ConnectionInfo `json:"info,omitempty" yaml:"info,omitempty"`
}

// Connection states reported by GetAllConnectionStatus.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// ExecuteQuery runs one statement.
func (s *Service) ExecuteQuery(ctx context.Context, name, sql string, params ...any) (*core.QueryResult, error) {
	a, err := s.conns.GetConnection(ctx, name)
	if err != nil {
		return nil, err
	}
	return a.Query(ctx, sql, params...)
}

// ExecuteTransaction runs statements all-or-nothing.
func (s *Service) ExecuteTransaction(ctx context.Context, name string, statements []core.Statement) ([]*core.QueryResult, error) {
	a, err := s.conns.GetConnection(ctx, name)
	if err != nil {
		return nil, err
	}
	return a.Transaction(ctx, statements)
}

// ExecutePagedQuery returns one page of sql's rows. Pages start at 1; a page
// below 1 is treated as 1. For SELECT and WITH statements the total is taken
// from a separate COUNT(*) round-trip, so a concurrent write can make it
// disagree with the page. Other statements report a total of 0.
func (s *Service) ExecutePagedQuery(ctx context.Context, name, sql string, page, pageSize int, params ...any) (*PagedResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 0 {
		pageSize = 0
	}

	a, err := s.conns.GetConnection(ctx, name)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	res, err := a.Query(ctx, a.BuildPaginationQuery(sql, offset, pageSize), params...)
	if err != nil {
		return nil, err
	}

	out := &PagedResult{
		Columns:    res.Columns,
		Data:       res.Rows,
		Pagination: Pagination{Page: page, PageSize: pageSize},
	}

	switch adapter.FirstKeyword(sql) {
	case "SELECT", "WITH":
		total, err := s.count(ctx, a, "SELECT COUNT(*) AS total FROM ("+adapter.TrimStatement(sql)+") AS count_query", params...)
		if err != nil {
			return nil, err
		}
		out.Pagination.Total = total
		out.Pagination.TotalPages = totalPages(total, pageSize)
	}
	return out, nil
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

func (s *Service) count(ctx context.Context, a adapter.Adapter, sql string, params ...any) (int64, error) {
	res, err := a.Query(ctx, sql, params...)
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 || len(res.Columns) == 0 {
		return 0, nil
	}
	n, _ := adapter.AsInt64(res.Rows[0][res.Columns[0]])
	return n, nil
}

// ValidateQuery runs sql wrapped to return no rows. A statement error makes
// the result invalid; only a failure to reach the database is returned as an
// error.
func (s *Service) ValidateQuery(ctx context.Context, name, sql string) (*Validation, error) {
	a, err := s.conns.GetConnection(ctx, name)
	if err != nil {
		return nil, err
	}

	res, err := a.Query(ctx, "SELECT * FROM ("+adapter.TrimStatement(sql)+") AS validation_query LIMIT 0")
	if err != nil {
		s.logger.Debug("query rejected", slog.String("database", name), slog.Any("error", err))
		return &Validation{IsValid: false, Error: err.Error()}, nil
	}
	return &Validation{IsValid: true, Columns: res.Columns}, nil
}

// GetTables lists the tables of a database.
func (s *Service) GetTables(ctx context.Context, name string) ([]string, error) {
	a, err := s.conns.GetConnection(ctx, name)
	if err != nil {
		return nil, err
	}
	return a.Tables(ctx)
}

// GetTableInfo describes one table.
func (s *Service) GetTableInfo(ctx context.Context, name, table string) (*core.TableInfo, error) {
	a, err := s.conns.GetConnection(ctx, name)
	if err != nil {
		return nil, err
	}
	return a.TableInfo(ctx, table)
}

// PreviewTableData returns up to limit rows of table and its total row
// count. A limit of zero or less uses DefaultPreviewLimit.
func (s *Service) PreviewTableData(ctx context.Context, name, table string, limit int) (*TablePreview, error) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	a, err := s.conns.GetConnection(ctx, name)
	if err != nil {
		return nil, err
	}

	from := a.Dialect().QuoteQualified(table)
	res, err := a.Query(ctx, a.BuildPaginationQuery("SELECT * FROM "+from, 0, limit))
	if err != nil {
		return nil, err
	}
	total, err := s.count(ctx, a, "SELECT COUNT(*) AS total FROM "+from)
	if err != nil {
		return nil, err
	}
	return &TablePreview{Columns: res.Columns, Data: res.Rows, TotalRows: total}, nil
}

// GetDatabaseStats introspects every table. A table whose introspection
// fails is still listed, with zero columns.
func (s *Service) GetDatabaseStats(ctx context.Context, name string) (*DatabaseStats, error) {
	a, err := s.conns.GetConnection(ctx, name)
	if err != nil {
		return nil, err
	}
	tables, err := a.Tables(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]TableStats, len(tables))
	var g errgroup.Group
	g.SetLimit(statsConcurrency)
	for i, table := range tables {
		g.Go(func() error {
			stats[i] = TableStats{TableName: table}
			info, err := a.TableInfo(ctx, table)
			if err != nil {
				s.logger.Warn("table introspection failed",
					slog.String("database", name),
					slog.String("table", table),
					slog.Any("error", err))
				return nil
			}
			stats[i].ColumnCount = len(info.Columns)
			stats[i].Columns = info.Columns
			return nil
		})
	}
	_ = g.Wait()

	return &DatabaseStats{TableCount: len(tables), Tables: stats}, nil
}

// GetAllConnectionStatus probes every configured database concurrently.
// An unreachable database is reported as disconnected.
func (s *Service) GetAllConnectionStatus(ctx context.Context) []ConnectionStatus {
	names := s.conns.Names()
	out := make([]ConnectionStatus, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = s.status(ctx, name)
		}()
	}
	wg.Wait()
	return out
}

func (s *Service) status(ctx context.Context, name string) ConnectionStatus {
	st := ConnectionStatus{Name: name, Status: StatusDisconnected}
	if !s.conns.TestConnection(ctx, name) {
		return st
	}
	a, err := s.conns.GetConnection(ctx, name)
	if err != nil {
		return st
	}
	info := a.ConnectionInfo(ctx)
	st.Status = StatusConnected
	st.Info = &info
	return st
}

// CloseAllConnections closes every open connection.
func (s *Service) CloseAllConnections() error {
	return s.conns.CloseAll()
}
