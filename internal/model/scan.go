package model

import (
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// Scan errors.
var (
	// ErrInvalidSource is returned when a source string is neither "image" nor "text".
	ErrInvalidSource = errors.New("invalid scan source")
)

// Source is the medium a label was captured from.
type Source string

const (
	// SourceText is a label typed or pasted as text.
	SourceText Source = "text"
	// SourceImage is a label photographed and passed through OCR.
	SourceImage Source = "image"
)

// ParseSource converts a string into a Source.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceText:
		return SourceText, nil
	case SourceImage:
		return SourceImage, nil
	default:
		return "", ErrInvalidSource
	}
}

// ExpiryWindow is how long an unsaved scan is kept before it becomes
// eligible for removal.
const ExpiryWindow = 24 * time.Hour

// Scan is the persisted record of one analysis.
// Its JSON form is the record consumed by storage collaborators.
type Scan struct {
	// ID uniquely identifies the scan.
	ID uuid.UUID `json:"scan_id"`

	// Timestamp is when the analysis was performed (ISO-8601 in JSON).
	Timestamp time.Time `json:"timestamp"`

	// Source is "image" or "text".
	Source Source `json:"source"`

	// ImagePath is the path of the label photo, nil for text scans.
	ImagePath *string `json:"image_path"`

	// RawText is the label text exactly as entered or recognized.
	RawText string `json:"raw_text"`

	// CleanedIngredients is the normalized token list that was analyzed.
	CleanedIngredients []string `json:"cleaned_ingredients"`

	// Analysis is owned by value; scans never share results.
	Analysis AnalysisResult `json:"analysis"`

	// Saved exempts the scan from automatic expiry.
	Saved bool `json:"saved"`

	// UserNotes is free text attached by the user, nil when absent.
	UserNotes *string `json:"user_notes"`
}

// NewScan creates an unsaved scan with a fresh ID and the current time.
func NewScan(source Source, rawText string) *Scan {
	return &Scan{
		ID:                 uuid.New(),
		Timestamp:          time.Now().UTC(),
		Source:             source,
		RawText:            rawText,
		CleanedIngredients: []string{},
		Analysis: AnalysisResult{
			Breakdown: []BreakdownItem{},
			Flags:     []string{},
		},
	}
}

// SetAnalysis stores a copy of the tokens and result on the scan.
func (s *Scan) SetAnalysis(tokens []string, result AnalysisResult) {
	s.CleanedIngredients = append(make([]string, 0, len(tokens)), tokens...)
	s.Analysis = result.Clone()
}

// SetImagePath records the label photo path. An empty path clears it.
func (s *Scan) SetImagePath(path string) {
	if path == "" {
		s.ImagePath = nil
		return
	}
	s.ImagePath = &path
}

// SetNotes records user notes. Empty notes clear the field.
func (s *Scan) SetNotes(notes string) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		s.UserNotes = nil
		return
	}
	s.UserNotes = &notes
}

// Notes returns the user notes, or an empty string when none are set.
func (s *Scan) Notes() string {
	if s.UserNotes == nil {
		return ""
	}
	return *s.UserNotes
}

// Expired reports whether the scan may be removed at the given time.
// Saved scans never expire.
func (s *Scan) Expired(now time.Time) bool {
	if s.Saved {
		return false
	}
	return now.Sub(s.Timestamp) >= ExpiryWindow
}

// Fingerprint returns a stable hex digest of a token list.
// Two labels that normalize to the same tokens share a fingerprint.
func Fingerprint(tokens []string) string {
	sum := sha3.Sum256([]byte(strings.Join(tokens, ",")))
	return hex.EncodeToString(sum[:16])
}
