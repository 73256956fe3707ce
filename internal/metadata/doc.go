// Package metadata is the PostgreSQL-backed catalog of tenants, albums,
// galleries, and photos. It implements the metadata interfaces the delivery
// pipeline consumes and owns the schema migrations.
package metadata
