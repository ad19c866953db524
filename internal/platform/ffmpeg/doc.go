// Package ffmpeg transcodes videos for upload by running the ffmpeg binary.
// Videos are downscaled to a maximum width and re-encoded as H.264/AAC MP4
// with the moov atom at the front so they stream progressively.
package ffmpeg
