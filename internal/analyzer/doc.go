// Package analyzer classifies normalized ingredient tokens and scores them.
//
// The deterministic path (Classify) looks every token up in fixed rule
// tables: a set of harmful E-number codes, the generic E-number pattern and
// a small lexicon of ingredients worth limiting. The health score is always
// derived from the breakdown with Score, whichever producer built the
// breakdown; Finalize re-applies it to results from untrusted producers.
//
// Service is the combined classify-or-enhance entry point. It picks the
// mode once per call from the presence of a credential and, when an
// Enhancer fails, falls back to Classify explicitly.
package analyzer
