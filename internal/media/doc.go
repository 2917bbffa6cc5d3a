// Package media converts downloaded clips into vertical captioned videos by
// orchestrating yt-dlp, whisper, and ffmpeg as subprocesses.
package media
