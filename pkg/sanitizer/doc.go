// Package sanitizer normalizes requester-supplied input before validation
// and storage.
//
// All functions are idempotent - applying them twice produces the same
// result - and handle invalid input by returning empty strings rather
// than errors.
//
// Normalization includes:
//   - Phone numbers: convert to E.164 format (+[country][number])
//   - Names: collapse whitespace, trim leading/trailing spaces
//   - Free text (condition, vitals, notes): collapse whitespace, strip
//     control characters
//   - Department tags: lowercase, letters only
package sanitizer
