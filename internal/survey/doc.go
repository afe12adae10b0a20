// Package survey understands the ANP weekly fuel-price report: the workbook
// layout, the column vocabulary, and the reduction of raw rows to the latest
// reporting window for one municipality or for the whole country.
package survey
