// Package ytdlp wraps the yt-dlp binary for audio-only episode downloads.
package ytdlp
