// Package tasks runs the multi-request operations behind the CLI and TUI with progress reporting.
//
// # Operations
//
//  1. [Engine.Browse] : titles for a genre
//     - Maps the genre to search terms (movies, series, suspense, terror, or the genre itself)
//     - Runs one first-page search per term, paced by a [rate.Limiter]
//     - Removes duplicates by IMDb id and truncates to the limit
//
//  2. [Engine.Export] : writes a watch list in several formats at once
//     - One worker per format from a bounded pool
//     - Writes export_manifest.json summarizing every file produced
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Sends use select with default,
// so a slow or missing reader never stalls the operation.
package tasks
