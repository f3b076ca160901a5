// Package ocr turns label photos into text.
//
// Recognition is delegated to an external command (tesseract by default),
// so the package only builds the command line, enforces a timeout and
// tidies the output. ReadImageMeta reads the photo's EXIF block for the
// capture time and camera, which are shown alongside image scans.
package ocr
