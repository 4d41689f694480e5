package model

// GAV is a Maven coordinate (groupId:artifactId:version).
type GAV struct {
	GroupID    string
	ArtifactID string
	Version    string // "" for unversioned coordinates
}

func (g GAV) String() string {
	s := g.GroupID + ":" + g.ArtifactID
	if g.Version != "" {
		s += ":" + g.Version
	}
	return s
}

// Unversioned drops the version, used to count artifacts across versions.
func (g GAV) Unversioned() GAV {
	return GAV{GroupID: g.GroupID, ArtifactID: g.ArtifactID}
}

// FileNamePrefix returns "artifactId-version", the prefix the Maven archiver
// gives to the files it produces.
func (g GAV) FileNamePrefix() string {
	if g.Version == "" {
		return g.ArtifactID
	}
	return g.ArtifactID + "-" + g.Version
}
