// Package view turns fetched CSV files into the panels of the bts-board page.
//
// A Panel is either loading, rendered with a table, or showing the warning
// banner. Board holds the panels of the currently selected past date and makes
// sure a slow response for an older selection never overwrites a newer one.
// Render produces the whole page from a Page value with html/template, so
// every cell is escaped regardless of where the CSV came from.
package view
