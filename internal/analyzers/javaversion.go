package analyzers

import (
	"encoding/binary"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/StinkyLord/jarinspect/internal/archive"
	"github.com/StinkyLord/jarinspect/internal/fingerprints"
	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/output"
)

const classMagic = 0xCAFEBABE

// JavaVersionAnalyzer counts, per archive, the class files compiled for each
// Java release.
type JavaVersionAnalyzer struct {
	reportSink
	maven    *MavenAnalyzer
	versions map[model.ArchiveUnit]map[*fingerprints.Release]int
}

// NewJavaVersion returns a Java version analyzer. maven may be nil.
func NewJavaVersion(report *output.Report, maven *MavenAnalyzer) *JavaVersionAnalyzer {
	return &JavaVersionAnalyzer{
		reportSink: reportSink{report: report},
		maven:      maven,
		versions:   map[model.ArchiveUnit]map[*fingerprints.Release]int{},
	}
}

func (a *JavaVersionAnalyzer) Name() string { return "java-version" }

func (a *JavaVersionAnalyzer) Init() {
	clear(a.versions)
}

func (a *JavaVersionAnalyzer) Process(ctx Context, ar *archive.Archive) {
	counts := map[*fingerprints.Release]int{}
	for _, e := range ar.Entries() {
		if !strings.HasSuffix(e.Name, ".class") {
			continue
		}
		counts[classRelease(ctx, ar, e)]++
	}
	a.versions[ctx.Unit.Key()] = counts
}

// classRelease reads the 8 header bytes of a class file.
func classRelease(ctx Context, ar *archive.Archive, e archive.Entry) *fingerprints.Release {
	rc, err := ar.Open(e)
	if err != nil {
		ctx.AddErrorf("Unable to parse class file %s: %v", e.Name, err)
		return fingerprints.ParseError
	}
	defer rc.Close()

	var header [8]byte
	if _, err := io.ReadFull(rc, header[:]); err != nil {
		ctx.AddErrorf("Unable to parse class file %s: %v", e.Name, err)
		return fingerprints.ParseError
	}
	if magic := binary.BigEndian.Uint32(header[0:4]); magic != classMagic {
		ctx.AddErrorf("Unable to parse class file %s: bad magic number %#x", e.Name, magic)
		return fingerprints.ParseError
	}
	minor := binary.BigEndian.Uint16(header[4:6])
	major := binary.BigEndian.Uint16(header[6:8])
	return fingerprints.MatchRelease(int(major), int(minor))
}

// Count returns the number of class files of unit classified as release.
func (a *JavaVersionAnalyzer) Count(unit model.ArchiveUnit, release *fingerprints.Release) int {
	return a.versions[unit.Key()][release]
}

func (a *JavaVersionAnalyzer) Finish() error {
	return a.write(func(r *rows) {
		r.add("JAR", "Maven GAV", "Java Version", "Files in JAR")
		for _, unit := range model.SortedKeys(a.versions) {
			counts := a.versions[unit]
			releases := make([]*fingerprints.Release, 0, len(counts))
			for release := range counts {
				releases = append(releases, release)
			}
			slices.SortFunc(releases, fingerprints.Compare)
			gav := a.maven.GAVString(unit)
			for _, release := range releases {
				r.add(unit.String(), gav, release.Name, strconv.Itoa(counts[release]))
			}
		}
	})
}
