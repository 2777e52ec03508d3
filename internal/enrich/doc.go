// Package enrich implements the note enrichment pipeline: it scans a
// deck, decides per note which enrichment stages are missing, generates
// the missing text and audio through the configured providers, and stops
// after a fixed quota of notes has received new work.
package enrich
