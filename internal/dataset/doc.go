// Package dataset parses uploaded files into an in-memory Dataset:
// tabular formats (CSV, TSV, Excel) become a Table, document formats
// (PDF, plain text) become a Document. Format detection is by file
// extension and the set of supported formats is closed.
package dataset
