// Package exporter writes the enriched station registry.
//
// RegistryExporter picks the format from the file extension: an .xlsx
// workbook by default, or CSV through CSVWriter. Every file is written to a
// temp file first and renamed into place.
//
// Month cells without data are left empty in both formats. They are never
// written as zero.
package exporter
