package ocr

import "errors"

var (
	// ErrEmptyCommand is returned when the recognizer command line is blank.
	ErrEmptyCommand = errors.New("ocr command is empty")

	// ErrNoText is returned when recognition succeeded but produced no text.
	ErrNoText = errors.New("no text recognized in image")

	// ErrImageNotFound is returned when the image path does not exist.
	ErrImageNotFound = errors.New("image not found")
)
