// Package testutil builds Java archive fixtures at test time: zip files,
// class file headers and compiled module descriptors.
package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// File is one entry of a fixture archive.
type File struct {
	Name string
	Data []byte
}

// Text returns a File with string content.
func Text(name, content string) File {
	return File{Name: name, Data: []byte(content)}
}

// Manifest returns a MANIFEST.MF entry with the given main attributes, given
// as name/value pairs.
func Manifest(attrs ...string) File {
	var b strings.Builder
	b.WriteString("Manifest-Version: 1.0\r\n")
	for i := 0; i+1 < len(attrs); i += 2 {
		b.WriteString(attrs[i] + ": " + attrs[i+1] + "\r\n")
	}
	b.WriteString("\r\n")
	return Text("META-INF/MANIFEST.MF", b.String())
}

// PomProperties returns a pom.properties entry as written by the Maven archiver.
func PomProperties(groupID, artifactID, version string) File {
	return Text("META-INF/maven/"+groupID+"/"+artifactID+"/pom.properties",
		"#Generated by Maven\ngroupId="+groupID+"\nartifactId="+artifactID+"\nversion="+version+"\n")
}

// Class returns a class file entry whose header declares major.minor.
func Class(name string, major, minor uint16) File {
	return File{Name: name, Data: ClassHeader(major, minor)}
}

// ClassHeader returns the first bytes of a class file: magic, minor, major,
// followed by an empty constant pool.
func ClassHeader(major, minor uint16) []byte {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.BigEndian, uint32(0xCAFEBABE))
	_ = binary.Write(&b, binary.BigEndian, minor)
	_ = binary.Write(&b, binary.BigEndian, major)
	_ = binary.Write(&b, binary.BigEndian, uint16(1))
	return b.Bytes()
}

// ZipBytes returns the bytes of a zip archive holding files in order.
func ZipBytes(t testing.TB, files ...File) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			t.Fatalf("zip write %s: %v", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// Nested returns an entry holding a whole archive.
func Nested(t testing.TB, name string, files ...File) File {
	t.Helper()
	return File{Name: name, Data: ZipBytes(t, files...)}
}

// WriteZip writes an archive to path, creating parent directories, and
// returns path.
func WriteZip(t testing.TB, path string, files ...File) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, ZipBytes(t, files...), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
