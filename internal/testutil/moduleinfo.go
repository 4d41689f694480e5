package testutil

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// Provide is a "provides ... with ..." clause of a ModuleInfo.
type Provide struct {
	Service   string
	Providers []string
}

// ModuleInfo describes a module declaration to compile into a
// module-info.class fixture.
type ModuleInfo struct {
	Name     string
	Version  string
	Open     bool
	Requires []string
	Exports  []string
	Uses     []string
	Provides []Provide
}

type pool struct {
	buf   bytes.Buffer
	next  uint16
	index map[string]uint16
}

func (p *pool) add(key string, write func(*bytes.Buffer), slots uint16) uint16 {
	if i, ok := p.index[key]; ok {
		return i
	}
	i := p.next
	write(&p.buf)
	p.next += slots
	p.index[key] = i
	return i
}

func (p *pool) utf8(s string) uint16 {
	return p.add("u:"+s, func(b *bytes.Buffer) {
		b.WriteByte(1)
		be16(b, uint16(len(s)))
		b.WriteString(s)
	}, 1)
}

func (p *pool) ref(tag byte, name string) uint16 {
	ni := p.utf8(name)
	return p.add(string(rune('0'+tag))+":"+name, func(b *bytes.Buffer) {
		b.WriteByte(tag)
		be16(b, ni)
	}, 1)
}

func internal(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// Bytes compiles the declaration. The constant pool starts with a long
// constant so readers must handle two-slot entries.
func (m ModuleInfo) Bytes() []byte {
	p := &pool{next: 1, index: map[string]uint16{}}
	p.add("long", func(b *bytes.Buffer) {
		b.WriteByte(5)
		_ = binary.Write(b, binary.BigEndian, int64(42))
	}, 2)

	var body bytes.Buffer
	be16(&body, p.ref(19, m.Name))
	var flags uint16
	if m.Open {
		flags |= 0x0020
	}
	be16(&body, flags)
	if m.Version != "" {
		be16(&body, p.utf8(m.Version))
	} else {
		be16(&body, 0)
	}

	be16(&body, uint16(len(m.Requires)))
	for _, r := range m.Requires {
		be16(&body, p.ref(19, r))
		be16(&body, 0)
		be16(&body, 0)
	}
	be16(&body, uint16(len(m.Exports)))
	for _, e := range m.Exports {
		be16(&body, p.ref(20, internal(e)))
		be16(&body, 0)
		be16(&body, 0)
	}
	be16(&body, 0) // opens
	be16(&body, uint16(len(m.Uses)))
	for _, u := range m.Uses {
		be16(&body, p.ref(7, internal(u)))
	}
	be16(&body, uint16(len(m.Provides)))
	for _, pr := range m.Provides {
		be16(&body, p.ref(7, internal(pr.Service)))
		be16(&body, uint16(len(pr.Providers)))
		for _, impl := range pr.Providers {
			be16(&body, p.ref(7, internal(impl)))
		}
	}

	attrName := p.utf8("Module")
	thisClass := p.ref(7, "module-info")

	var out bytes.Buffer
	_ = binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	be16(&out, 0)  // minor
	be16(&out, 53) // major
	be16(&out, p.next)
	out.Write(p.buf.Bytes())
	be16(&out, 0x8000) // ACC_MODULE
	be16(&out, thisClass)
	be16(&out, 0) // super_class
	be16(&out, 0) // interfaces
	be16(&out, 0) // fields
	be16(&out, 0) // methods
	be16(&out, 1) // attributes
	be16(&out, attrName)
	_ = binary.Write(&out, binary.BigEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

// File returns the module-info.class entry.
func (m ModuleInfo) File() File {
	return File{Name: "module-info.class", Data: m.Bytes()}
}

func be16(b *bytes.Buffer, v uint16) {
	_ = binary.Write(b, binary.BigEndian, v)
}
