// Package pipeline provides a framework for executing scan steps in sequence.
//
// One label passes through OCR (image sources only), normalization,
// analysis and, when storage is enabled, persistence. Each stage is a Step
// that receives the current report and fills in its part.
//
// The pipeline supports both individual scans and batch processing with
// concurrency control using errgroup.
package pipeline
