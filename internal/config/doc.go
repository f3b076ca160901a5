// Package config provides configuration structures and utilities for labelscan.
// It defines the runtime options assembled from CLI flags and the optional
// .labelscan.yaml file: enhancement endpoint and credential lookup, OCR
// command, storage location, batch concurrency and report preferences.
package config
