// Package id provides unique identifier generation utilities.
//
// This is the canonical source for ID generation across the devmock
// codebase. Two formats cover the current needs:
//
//   - UUID: standard UUID v4, also exposed to templates as {{uuid}}
//   - Short: 16-character hex IDs for recording entries and generated
//     sample data
package id
