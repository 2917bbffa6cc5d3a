// Package subtitles renders timed transcript segments as SRT subtitle files
// suitable for burning into video with ffmpeg.
package subtitles
