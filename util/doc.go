// Package util provides the small naming and formatting helpers shared by
// the pipeline: transcript filenames, platform labels, timestamps,
// durations and home-relative paths.
package util
