// Package report renders run progress for humans: a console sink that prints
// one line per run event, and a final summary as a table or JSON.
package report
