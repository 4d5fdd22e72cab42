// Package table parses the unquoted CSV files of the data repository into
// rows of string cells.
package table
