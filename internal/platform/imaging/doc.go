// Package imaging re-encodes photos for upload: it applies EXIF orientation,
// shrinks them to fit a bounded box and writes them as JPEG.
package imaging
