package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// ModuleInfoName is the entry holding a compiled module descriptor.
const ModuleInfoName = "module-info.class"

// ErrInvalidDescriptor is wrapped by every module descriptor parsing error.
var ErrInvalidDescriptor = errors.New("invalid module descriptor")

const (
	classMagic = 0xCAFEBABE

	accModule = 0x8000
	accOpen   = 0x0020

	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// Provides is one "provides <service> with <providers>" clause.
type Provides struct {
	Service   string
	Providers []string
}

// ModuleDescriptor is the subset of a Java module declaration the analyzers
// report on. Class and package names use the dotted form.
type ModuleDescriptor struct {
	Name      string
	Version   string
	Automatic bool
	Open      bool
	Requires  []string
	Exports   []string
	Opens     []string
	Uses      []string
	Provides  []Provides
}

// NameAndVersion returns "name@version", or the name alone when the module
// has no version.
func (d *ModuleDescriptor) NameAndVersion() string {
	if d.Version == "" {
		return d.Name
	}
	return d.Name + "@" + d.Version
}

// NewAutomaticModule returns the descriptor of an automatic module declared
// by an Automatic-Module-Name manifest attribute.
func NewAutomaticModule(name string) (*ModuleDescriptor, error) {
	if err := validateModuleName(name); err != nil {
		return nil, err
	}
	return &ModuleDescriptor{Name: name, Automatic: true}, nil
}

var javaKeywords = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true, "byte": true,
	"case": true, "catch": true, "char": true, "class": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extends": true, "final": true, "finally": true, "float": true,
	"for": true, "goto": true, "if": true, "implements": true, "import": true,
	"instanceof": true, "int": true, "interface": true, "long": true, "native": true,
	"new": true, "package": true, "private": true, "protected": true, "public": true,
	"return": true, "short": true, "static": true, "strictfp": true, "super": true,
	"switch": true, "synchronized": true, "this": true, "throw": true, "throws": true,
	"transient": true, "try": true, "void": true, "volatile": true, "while": true,
	"true": true, "false": true, "null": true, "_": true,
}

func validateModuleName(name string) error {
	if name == "" {
		return errors.New("empty module name")
	}
	for _, part := range strings.Split(name, ".") {
		if !isJavaIdentifier(part) || javaKeywords[part] {
			return fmt.Errorf("%s: invalid module name: %q is not a Java identifier", name, part)
		}
	}
	return nil
}

func isJavaIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r), r == '_', r == '$':
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

type cpEntry struct {
	tag   byte
	utf8  string
	index uint16 // name index of Class, Module and Package entries
}

type classReader struct {
	data []byte
	pos  int
	err  error
}

func (r *classReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("%w: truncated at offset %d", ErrInvalidDescriptor, r.pos)
		return false
	}
	return true
}

func (r *classReader) u1() byte {
	if !r.need(1) {
		return 0
	}
	b := r.data[r.pos]
	r.pos++
	return b
}

func (r *classReader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *classReader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *classReader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// ReadModuleDescriptor parses a compiled module-info.class.
func ReadModuleDescriptor(in io.Reader) (*ModuleDescriptor, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("cannot read module descriptor: %w", err)
	}
	r := &classReader{data: data}

	if r.u4() != classMagic && r.err == nil {
		return nil, fmt.Errorf("%w: bad magic number", ErrInvalidDescriptor)
	}
	r.u2() // minor
	r.u2() // major

	pool := readConstantPool(r)
	if r.err != nil {
		return nil, r.err
	}
	cp := constantPool(pool)

	if flags := r.u2(); r.err == nil && flags&accModule == 0 {
		return nil, fmt.Errorf("%w: ACC_MODULE not set", ErrInvalidDescriptor)
	}
	r.u2() // this_class
	r.u2() // super_class
	interfaces := r.u2()
	for i := 0; i < int(interfaces); i++ {
		r.u2()
	}
	skipMembers(r) // fields
	skipMembers(r) // methods

	var desc *ModuleDescriptor
	attributes := r.u2()
	for i := 0; i < int(attributes) && r.err == nil; i++ {
		name, err := cp.utf8(r.u2())
		length := int(r.u4())
		body := r.bytes(length)
		if r.err != nil {
			break
		}
		if err != nil {
			return nil, err
		}
		if name == "Module" {
			desc, err = parseModuleAttribute(cp, body)
			if err != nil {
				return nil, err
			}
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	if desc == nil {
		return nil, fmt.Errorf("%w: no Module attribute", ErrInvalidDescriptor)
	}
	return desc, nil
}

func readConstantPool(r *classReader) []cpEntry {
	count := int(r.u2())
	pool := make([]cpEntry, count)
	for i := 1; i < count && r.err == nil; i++ {
		tag := r.u1()
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			n := int(r.u2())
			e.utf8 = string(r.bytes(n))
		case tagClass, tagModule, tagPackage:
			e.index = r.u2()
		case tagString, tagMethodType:
			r.u2()
		case tagMethodHandle:
			r.bytes(3)
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			r.u4()
		case tagLong, tagDouble:
			r.bytes(8)
			pool[i] = e
			i++ // eight-byte constants take two slots
			continue
		default:
			if r.err == nil {
				r.err = fmt.Errorf("%w: unknown constant pool tag %d at index %d", ErrInvalidDescriptor, tag, i)
			}
			return nil
		}
		pool[i] = e
	}
	return pool
}

func skipMembers(r *classReader) {
	count := r.u2()
	for i := 0; i < int(count) && r.err == nil; i++ {
		r.u2() // access_flags
		r.u2() // name_index
		r.u2() // descriptor_index
		attributes := r.u2()
		for j := 0; j < int(attributes) && r.err == nil; j++ {
			r.u2()
			r.bytes(int(r.u4()))
		}
	}
}

type constantPool []cpEntry

func (cp constantPool) entry(index uint16, tag byte) (cpEntry, error) {
	if index == 0 || int(index) >= len(cp) || cp[index].tag != tag {
		return cpEntry{}, fmt.Errorf("%w: constant pool index %d is not of tag %d", ErrInvalidDescriptor, index, tag)
	}
	return cp[index], nil
}

func (cp constantPool) utf8(index uint16) (string, error) {
	e, err := cp.entry(index, tagUtf8)
	return e.utf8, err
}

// named resolves a Class, Module or Package entry to its dotted name.
func (cp constantPool) named(index uint16, tag byte) (string, error) {
	e, err := cp.entry(index, tag)
	if err != nil {
		return "", err
	}
	name, err := cp.utf8(e.index)
	if err != nil {
		return "", err
	}
	if tag == tagModule {
		return name, nil
	}
	return strings.ReplaceAll(name, "/", "."), nil
}

func parseModuleAttribute(cp constantPool, body []byte) (*ModuleDescriptor, error) {
	r := &classReader{data: body}
	var errs []error
	named := func(tag byte) string {
		name, err := cp.named(r.u2(), tag)
		if err != nil && r.err == nil {
			errs = append(errs, err)
		}
		return name
	}
	namedList := func(tag byte) []string {
		n := int(r.u2())
		out := make([]string, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			out = append(out, named(tag))
		}
		return out
	}

	d := &ModuleDescriptor{}
	d.Name = named(tagModule)
	d.Open = r.u2()&accOpen != 0
	if vi := r.u2(); vi != 0 {
		v, err := cp.utf8(vi)
		if err != nil {
			errs = append(errs, err)
		}
		d.Version = v
	}

	requires := int(r.u2())
	for i := 0; i < requires && r.err == nil; i++ {
		d.Requires = append(d.Requires, named(tagModule))
		r.u2() // requires_flags
		r.u2() // requires_version_index
	}
	exports := int(r.u2())
	for i := 0; i < exports && r.err == nil; i++ {
		d.Exports = append(d.Exports, named(tagPackage))
		r.u2() // exports_flags
		namedList(tagModule)
	}
	opens := int(r.u2())
	for i := 0; i < opens && r.err == nil; i++ {
		d.Opens = append(d.Opens, named(tagPackage))
		r.u2() // opens_flags
		namedList(tagModule)
	}
	d.Uses = namedList(tagClass)
	provides := int(r.u2())
	for i := 0; i < provides && r.err == nil; i++ {
		p := Provides{Service: named(tagClass)}
		p.Providers = namedList(tagClass)
		d.Provides = append(d.Provides, p)
	}

	if r.err != nil {
		return nil, r.err
	}
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return d, nil
}
