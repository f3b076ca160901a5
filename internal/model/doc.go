// Package model defines the core data structures used throughout labelscan.
//
// This package contains the following main types:
//   - Classification and Severity: the per-ingredient verdict vocabulary
//   - AnalysisResult and BreakdownItem: the structured analysis of one label
//   - Scan: the persisted record wrapping one AnalysisResult with provenance
//   - ScanReport: the envelope a pipeline run fills in (Scan plus engine,
//     fingerprint and image metadata)
//   - Summary: a condensed, count-oriented view for human-readable output
//
// Models live in their own package so that the analyzer, enhancement
// adapter, storage and report packages can share them without import cycles.
//
// AnalysisResult and Scan serialize to a fixed JSON shape that storage and
// external consumers rely on; provenance that is not part of that shape is
// carried by ScanReport.
package model
