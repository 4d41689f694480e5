// Package fingerprints maps class file header versions to the Java release
// that produces them.
package fingerprints

// Release describes how to recognise the Java release a class file was
// compiled for.
type Release struct {
	Name  string // Display name, e.g. "Java 8"
	Major int    // Class file major version, -1 for the synthetic releases
	Minor int
	order int
}

// String returns the display name.
func (r *Release) String() string {
	return r.Name
}

// Compare orders releases by their position in the table; the synthetic
// Unrecognized and ParseError releases sort last.
func Compare(a, b *Release) int {
	return a.order - b.order
}

// KnownReleases is the built-in release database. Java 1.0 and 1.1 share the
// same header version; lookups return the first match.
var KnownReleases = []Release{
	{Name: "Java 1.0", Major: 45, Minor: 3},
	{Name: "Java 1.1", Major: 45, Minor: 3},
	{Name: "Java 1.2", Major: 46},
	{Name: "Java 1.3", Major: 47},
	{Name: "Java 1.4", Major: 48},
	{Name: "Java 5", Major: 49},
	{Name: "Java 6", Major: 50},
	{Name: "Java 7", Major: 51},
	{Name: "Java 8", Major: 52},
	{Name: "Java 9", Major: 53},
	{Name: "Java 10", Major: 54},
	{Name: "Java 11", Major: 55},
	{Name: "Java 12", Major: 56},
	{Name: "Java 13", Major: 57},
	{Name: "Java 14", Major: 58},
	{Name: "Java 15", Major: 59},
	{Name: "Java 16", Major: 60},
	{Name: "Java 17", Major: 61},
	{Name: "Java 18", Major: 62},
	{Name: "Java 19", Major: 63},
	{Name: "Java 20", Major: 64},
	{Name: "Java 21", Major: 65},
	{Name: "Java 22", Major: 66},
	{Name: "Java 23", Major: 67},
	{Name: "Java 24", Major: 68},
	{Name: "Java 25", Major: 69},
}

var (
	// Unrecognized is returned for a well-formed header of an unknown version.
	Unrecognized = &Release{Name: "Unrecognized min/maj", Major: -1, Minor: -1}
	// ParseError classifies entries whose header could not be read.
	ParseError = &Release{Name: "Parsing error", Major: -1, Minor: -1}
)

func init() {
	for i := range KnownReleases {
		KnownReleases[i].order = i
	}
	Unrecognized.order = len(KnownReleases)
	ParseError.order = len(KnownReleases) + 1
}

// MatchRelease returns the first release of the table declaring exactly
// major.minor, or Unrecognized.
func MatchRelease(major, minor int) *Release {
	for i := range KnownReleases {
		r := &KnownReleases[i]
		if r.Major == major && r.Minor == minor {
			return r
		}
	}
	return Unrecognized
}
