// Package plotting renders the figures of an analysed period with
// gonum.org/v1/plot and writes the PDF run report.
//
// The output format of a figure follows the extension of its file name
// (pdf, svg or png).
package plotting
