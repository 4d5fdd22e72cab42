// Package dates formats the calendar dates used by bts-board.
//
// It produces the human-readable date shown in the page header, the list of
// past dates offered in the date dropdown, and the MM_DD_YYYY token embedded in
// the remote CSV file names.
package dates
