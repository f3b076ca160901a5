package ocr

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/labelscan/internal/model"
)

// maxImageSize limits how much of a photo is read when looking for EXIF.
const maxImageSize = 32 * 1024 * 1024

// exifTimeLayout is the EXIF DateTime format.
const exifTimeLayout = "2006:01:02 15:04:05"

// ReadImageMeta extracts capture metadata from a label photo.
// A photo without EXIF data yields nil and no error.
func ReadImageMeta(path string) (*model.ImageMeta, error) {
	f, err := os.Open(path) //nolint:gosec // path is the user's own image
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
		}
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return parseImageMeta(data)
}

func parseImageMeta(data []byte) (*model.ImageMeta, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if errors.Is(err, exif.ErrNoExif) || (err == nil && rawExif == nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to locate exif data: %w", err)
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse exif data: %w", err)
	}

	meta := &model.ImageMeta{}
	for _, entry := range entries {
		applyTag(meta, entry.TagName, entry.Formatted)
	}

	if meta.CapturedAt == nil && meta.CameraMake == "" && meta.CameraModel == "" && !meta.HasGPS {
		return nil, nil
	}
	return meta, nil
}

// applyTag records one EXIF tag on meta. Unknown tags are ignored.
func applyTag(meta *model.ImageMeta, tagName, value string) {
	value = strings.TrimSpace(strings.Trim(value, "\x00"))

	switch tagName {
	case "DateTimeOriginal":
		if t, ok := parseExifTime(value); ok {
			meta.CapturedAt = &t
		}
	case "DateTime":
		// DateTimeOriginal wins when both are present.
		if meta.CapturedAt == nil {
			if t, ok := parseExifTime(value); ok {
				meta.CapturedAt = &t
			}
		}
	case "Make":
		meta.CameraMake = value
	case "Model":
		meta.CameraModel = value
	case "GPSLatitude", "GPSLongitude":
		meta.HasGPS = true
	}
}

func parseExifTime(value string) (time.Time, bool) {
	t, err := time.Parse(exifTimeLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
