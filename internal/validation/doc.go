// Package validation checks the files a processing run leaves behind before
// the run is reported as completed.
package validation
