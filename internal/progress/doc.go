// Package progress segments archiver console output into logical lines and
// extracts completion percentages.
//
// Archivers redraw their progress indicator in place with carriage returns
// instead of writing newline-terminated lines. Extractor frames the byte
// stream on '\r', decodes each chunk with the console encoding, strips the
// '\n' left behind by "\n\r" pairs, and matches a leading "NN%" token.
package progress
