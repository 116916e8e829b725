// Package deps resolves the external binaries q7z shells out to and reports
// whether they are available.
package deps
