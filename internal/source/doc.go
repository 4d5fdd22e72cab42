// Package source fetches the daily CSV files published in the beat-the-streak
// data repository.
//
// It builds raw.githubusercontent.com URLs for the predictions, past results
// and model performance files of a given date, and downloads them as text. A
// missing file, an empty body and an HTML page served in place of CSV are all
// reported as errors so callers never try to tabulate them.
package source
