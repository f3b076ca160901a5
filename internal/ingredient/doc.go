// Package ingredient turns raw ingredient-label text into normalized tokens.
//
// Label text arrives typed by hand or from OCR, so it is noisy: line breaks,
// percentages in parentheses, net weights, "contains:" prefixes and stray
// punctuation. Normalize runs a fixed sequence of rewrites over the text,
// splits it into list items, maps known synonyms to canonical tokens and
// removes duplicates while keeping first-seen order.
//
// Normalize is a pure function. It shares only read-only lookup tables and
// compiled patterns, so it is safe for concurrent use.
package ingredient
