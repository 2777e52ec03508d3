// Package processor wires the collection, profile and provider layers
// together and drives an enrichment run from the parsed command line.
package processor
