// Package settings assembles the incident-response web application's
// settings from environment flags, the optional capabilities the host
// provides and the installed applications manifest.
//
// The result is an immutable Settings value whose Mapping preserves the
// declaration order of every key, so two loads with identical inputs encode
// to identical bytes.
package settings
