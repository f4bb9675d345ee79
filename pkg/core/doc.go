// Package core defines the shared language of the polydb system.
//
// This package contains:
//   - Configuration types (DatabaseConfig, EngineKind)
//   - Result types (QueryResult, Field, ConnectionInfo)
//   - Introspection types (TableInfo, ColumnInfo)
//   - The error taxonomy shared by adapters, the registry and the query service
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
