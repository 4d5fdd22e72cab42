// Package web serves the bts-board pages over HTTP.
//
// The index page shows today's predictions and a dropdown of recent dates;
// /past renders the results and model performance files of one of those
// dates. Every request re-fetches the CSV files; nothing is cached.
package web
