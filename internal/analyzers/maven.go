package analyzers

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/magiconair/properties"

	"github.com/StinkyLord/jarinspect/internal/archive"
	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/output"
)

const (
	mavenDirectory = "META-INF/maven/"
	mavenPomFile   = "/pom.properties"
)

// errAmbiguousGAV is recorded when an archive holds several coordinates and
// its file name does not single one out.
const errAmbiguousGAV = "multiple " + mavenDirectory + "**" + mavenPomFile +
	" found, could not determine a GAV with filename either"

// MavenMode selects what the Maven analyzer produces at finish.
type MavenMode int

const (
	// MavenSilent only serves coordinates to other analyzers.
	MavenSilent MavenMode = iota
	// MavenCSV writes the maven report.
	MavenCSV
	// MavenScript prints a bash script deploying every artifact.
	MavenScript
)

// MavenAnalyzer extracts the Maven coordinates of each archive from
// META-INF/maven/<groupId>/<artifactId>/pom.properties.
type MavenAnalyzer struct {
	reportSink
	mode MavenMode
	out  io.Writer
	gavs map[model.ArchiveUnit]model.GAV
}

// NewMaven returns a Maven analyzer. report is used in MavenCSV mode, out in
// MavenScript mode.
func NewMaven(mode MavenMode, report *output.Report, out io.Writer) *MavenAnalyzer {
	a := &MavenAnalyzer{mode: mode, out: out, gavs: map[model.ArchiveUnit]model.GAV{}}
	if mode == MavenCSV {
		a.report = report
	}
	if a.out == nil {
		a.out = io.Discard
	}
	return a
}

func (a *MavenAnalyzer) Name() string { return "maven" }

func (a *MavenAnalyzer) Init() {
	clear(a.gavs)
}

func (a *MavenAnalyzer) Process(ctx Context, ar *archive.Archive) {
	var candidates []model.GAV
	for _, e := range ar.Entries() {
		if !isPomProperties(e.Name) {
			continue
		}
		gav, err := readGAV(ar, e)
		if err != nil {
			ctx.AddErrorf("Failed to read GAV definition %s: %v", e.Name, err)
			continue
		}
		if !containsGAV(candidates, gav) {
			candidates = append(candidates, gav)
		}
	}

	switch len(candidates) {
	case 0:
		return
	case 1:
		a.gavs[ctx.Unit.Key()] = candidates[0]
		return
	}

	name := ctx.Unit.FileName()
	var matching []model.GAV
	for _, gav := range candidates {
		if strings.Contains(name, gav.FileNamePrefix()) {
			matching = append(matching, gav)
		}
	}
	if len(matching) == 1 {
		a.gavs[ctx.Unit.Key()] = matching[0]
		return
	}
	ctx.AddError(errAmbiguousGAV)
}

func isPomProperties(name string) bool {
	return strings.HasPrefix(name, mavenDirectory) && strings.HasSuffix(name, mavenPomFile)
}

func containsGAV(gavs []model.GAV, gav model.GAV) bool {
	for _, g := range gavs {
		if g == gav {
			return true
		}
	}
	return false
}

// readGAV parses a pom.properties entry. Properties files are ISO-8859-1.
func readGAV(ar *archive.Archive, e archive.Entry) (model.GAV, error) {
	data, err := ar.ReadEntry(e)
	if err != nil {
		return model.GAV{}, err
	}
	loader := &properties.Loader{Encoding: properties.ISO_8859_1, DisableExpansion: true}
	p, err := loader.LoadBytes(data)
	if err != nil {
		return model.GAV{}, err
	}

	var missing []string
	get := func(key string) string {
		v, ok := p.Get(key)
		if !ok {
			missing = append(missing, key)
		}
		return strings.TrimSpace(v)
	}
	gav := model.GAV{GroupID: get("groupId"), ArtifactID: get("artifactId"), Version: get("version")}
	if len(missing) > 0 {
		return model.GAV{}, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}
	return gav, nil
}

// GAV returns the coordinates found for unit.
func (a *MavenAnalyzer) GAV(unit model.ArchiveUnit) (model.GAV, bool) {
	gav, ok := a.gavs[unit.Key()]
	return gav, ok
}

// GAVString returns the coordinates of unit, or "" when unknown.
func (a *MavenAnalyzer) GAVString(unit model.ArchiveUnit) string {
	if a == nil {
		return ""
	}
	if gav, ok := a.gavs[unit.Key()]; ok {
		return gav.String()
	}
	return ""
}

func (a *MavenAnalyzer) Finish() error {
	switch a.mode {
	case MavenCSV:
		return a.writeReport()
	case MavenScript:
		return a.writeScript()
	}
	return nil
}

func (a *MavenAnalyzer) writeReport() error {
	return a.write(func(r *rows) {
		counts := map[model.GAV]int{}
		unversioned := map[model.GAV]int{}
		for _, gav := range a.gavs {
			counts[gav]++
			unversioned[gav.Unversioned()]++
		}

		r.add("GAV", "groupId:artifactId", "version", "groupId:artifactId references in fileset",
			"groupId:artifactId:version references in fileset", "File")
		for _, unit := range model.SortedKeys(a.gavs) {
			gav := a.gavs[unit]
			r.add(gav.String(), gav.Unversioned().String(), gav.Version,
				strconv.Itoa(unversioned[gav.Unversioned()]), strconv.Itoa(counts[gav]), unit.String())
		}
	})
}

func (a *MavenAnalyzer) writeScript() error {
	if len(a.gavs) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	b.WriteString("_mvn() {\n")
	b.WriteString("  local groupId=\"$1\"\n")
	b.WriteString("  local artifactId=\"$2\"\n")
	b.WriteString("  local version=\"$3\"\n")
	b.WriteString("  local file=\"$4\"\n")
	b.WriteString("  echo mvn deploy:deploy-file \"-DgroupId=$groupId\" \"-DartifactId=$artifactId\" \"-Dversion=$version\" \"-Dfile=$file\"\n")
	b.WriteString("}\n\n")
	fmt.Fprintf(&b, "# %d artifacts found\n", len(a.gavs))
	for _, unit := range model.SortedKeys(a.gavs) {
		gav := a.gavs[unit]
		fmt.Fprintf(&b, "_mvn %s %s %s %s\n",
			shellQuote(gav.GroupID), shellQuote(gav.ArtifactID), shellQuote(gav.Version), shellQuote(unit.String()))
	}
	_, err := io.WriteString(a.out, b.String())
	return err
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
