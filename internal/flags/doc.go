// Package flags reads boolean feature flags from the application manifest.
//
// Lookups never fail: a missing key, a value that is not a string, or text
// that is not a recognised truthy word all resolve to false.
package flags
