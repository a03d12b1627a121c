// Command podforge turns German podcast episodes into Turkish educational
// content. It detects episodes from an RSS or YouTube feed, downloads and
// transcribes audio, chunks transcripts into a searchable index, and
// generates a six-artifact content package per episode.
package main
