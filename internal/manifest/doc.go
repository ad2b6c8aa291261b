// Package manifest loads the application's metadata manifest into an
// immutable, typed tree of strings and nested groups. The manifest bundled
// with the binary is parsed once per process; other manifests can be loaded
// explicitly and passed to consumers.
package manifest
