// Package ddl models table schemas, computes the DDL actions that migrate
// one schema generation to the next, and renders them as PostgreSQL text.
//
// Everything in this package is a pure function of its arguments: nothing
// here opens a connection or performs I/O, and values are never mutated
// after construction, so concurrent use needs no synchronization.
//
// Cross-table dependencies (foreign keys) are not modeled. DiffDatabase may
// therefore emit a DROP TABLE for a table another one still references, or a
// CREATE TABLE before the table it references; callers that need that
// ordering must reorder the actions themselves.
package ddl
