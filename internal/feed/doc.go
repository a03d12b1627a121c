// Package feed fetches and parses podcast feeds (generic RSS and YouTube
// channel Atom) and records newly published episodes for the pipeline.
package feed
