// Package whisper uploads episode audio to an OpenAI-compatible
// transcription endpoint. Files larger than the configured upload ceiling
// are split into segments with ffmpeg and transcribed in order.
package whisper
