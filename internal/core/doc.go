// Package core cleans football-player season statistics tables.
//
// This package holds all domain logic independent of any transport layer. It
// is used by the HTTP API, the CLI and tests without modification.
//
// # Architecture
//
//   - Table: an ordered set of rows whose cells are missing, text or numbers.
//   - Cleaner: a fixed pipeline of six stages turning a raw table into a
//     cleaned one, with a Diagnostic for every correction it makes.
//   - Service: wraps the cleaner with a concurrency limiter, a timeout, run
//     history and metrics.
//
// # Cleaning Pipeline
//
// Stages run in strict order, each on the output of the previous one:
//
//  1. numeric: extract numbers from text in the metric columns ("15 matches" is 15)
//  2. duplicates: drop identical rows, then keep one row per player (most minutes, then matches)
//  3. missing: "" and "-" become missing, empty columns are dropped, counts are zero-filled
//  4. outliers: clip metrics to record limits (Gls 73, Ast 21, ...)
//  5. corrections: negative counts become 0, implausible ages become missing
//  6. identity: text columns get "Unknown", rows without a player are dropped
//
// A stage that fails is rolled back and reported with code CLN900; cleaning
// continues with the next stage. Cleaning a cleaned table changes nothing.
//
// # Reading Input
//
// [ReadTable] wraps the upload with BOM skipping and UTF-8 sanitization before
// parsing, so spreadsheet exports with odd encodings still load. Only input
// with no header row, or that is not CSV at all, is an error.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError]:
//
//   - FILE001-FILE006: File errors (size, format, empty)
//   - CLN001-CLN002: Cleaning request errors (missing columns, output format)
//   - STO001-STO002: Run history errors
//   - UPL001-UPL003: Clean request errors (busy, cancelled, timeout)
//
// Diagnostics use their own CLN1xx-CLN9xx codes; see [Diagnostic].
package core
