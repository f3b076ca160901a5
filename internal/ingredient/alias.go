package ingredient

// aliases maps known ingredient synonyms to their canonical token.
// Keys are already in normalized form (lowercase, [a-z0-9- ] only).
var aliases = map[string]string{
	"citric acid": "e330",

	// Azo colours listed by name instead of code.
	"tartrazine":        "e102",
	"sunset yellow":     "e110",
	"sunset yellow fcf": "e110",
	"carmoisine":        "e122",
	"azorubine":         "e122",
	"ponceau 4r":        "e124",
	"allura red":        "e129",
	"allura red ac":     "e129",

	// Other additives commonly spelled out.
	"ascorbic acid":        "e300",
	"sodium benzoate":      "e211",
	"monosodium glutamate": "e621",
}

// Canonical returns the canonical token for a normalized ingredient name.
// Names without an alias are returned unchanged.
func Canonical(name string) string {
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}
