// Package media stores uploaded product images.
//
// The local backend writes files under a directory and hands out URLs
// below a public base path; the HTTP layer serves the same directory
// through FS.
package media
