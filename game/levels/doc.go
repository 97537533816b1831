// Package levels decodes level image files into partition images.
//
// PNG, JPEG and GIF decoding come from the standard library; BMP, TIFF and
// WebP are registered from golang.org/x/image. A file that is missing or cannot
// be decoded is returned as an unreadable placeholder instead of an error, so
// one bad image only breaks its own level.
package levels
