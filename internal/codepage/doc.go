// Package codepage decodes console output produced by external tools.
//
// Command-line archivers write file names and status text in the host's
// legacy console encoding (the OEM code page on Windows, the locale charset
// elsewhere). The package discovers that encoding once and exposes a total
// Decoder backed by golang.org/x/text, so callers never see raw bytes.
package codepage
