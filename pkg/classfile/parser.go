// SPDX-License-Identifier: MPL-2.0

package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	magic = 0xCAFEBABE

	// ObjectClass is the root of every superclass chain.
	ObjectClass = "java.lang.Object"
)

// Constant pool tags.
const (
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

// ErrMalformedClass is returned for input that is not a well-formed class file.
var ErrMalformedClass = errors.New("malformed class file")

type (
	// Class is the structural view of one class file.
	Class struct {
		name        string
		super       string
		interfaces  []string
		fields      []string
		methods     []string
		accessFlags uint16
		major       uint16
		minor       uint16
	}

	// cpEntry is a constant pool slot. Only the data needed to resolve
	// class and member names is kept.
	cpEntry struct {
		tag   byte
		utf8  string
		index uint16
	}

	reader struct {
		data []byte
		off  int
		err  error
	}
)

// Parse reads a class file from r.
func Parse(r io.Reader) (*Class, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read class file: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes a class file held in memory.
func ParseBytes(data []byte) (*Class, error) {
	r := &reader{data: data}

	if r.u4() != magic {
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("%w: bad magic", ErrMalformedClass)
	}
	c := &Class{}
	c.minor = r.u2()
	c.major = r.u2()

	pool, err := readPool(r)
	if err != nil {
		return nil, err
	}

	c.accessFlags = r.u2()
	thisIdx := r.u2()
	superIdx := r.u2()
	if r.err != nil {
		return nil, r.err
	}
	if c.name, err = className(pool, thisIdx); err != nil {
		return nil, err
	}
	if superIdx != 0 {
		if c.super, err = className(pool, superIdx); err != nil {
			return nil, err
		}
	}

	n := r.u2()
	for range n {
		name, err := className(pool, r.u2())
		if err != nil {
			return nil, err
		}
		c.interfaces = append(c.interfaces, name)
	}

	if c.fields, err = readMembers(r, pool); err != nil {
		return nil, fmt.Errorf("fields of %s: %w", c.name, err)
	}
	if c.methods, err = readMembers(r, pool); err != nil {
		return nil, fmt.Errorf("methods of %s: %w", c.name, err)
	}
	if err := skipAttributes(r); err != nil {
		return nil, err
	}
	return c, nil
}

// Name returns the dotted binary name of the class.
func (c *Class) Name() string { return c.name }

// Superclass returns the dotted binary name of the direct superclass, or ""
// for java.lang.Object and module descriptors.
func (c *Class) Superclass() string { return c.super }

// Interfaces returns the directly implemented interfaces.
func (c *Class) Interfaces() []string { return c.interfaces }

// DeclaredFields returns the names of fields declared by the class itself,
// in declaration order.
func (c *Class) DeclaredFields() []string { return c.fields }

// DeclaredMethods returns the names of methods declared by the class itself,
// in declaration order. Constructors appear as "<init>".
func (c *Class) DeclaredMethods() []string { return c.methods }

// AccessFlags returns the class access flags.
func (c *Class) AccessFlags() uint16 { return c.accessFlags }

// Version returns the class file major and minor version.
func (c *Class) Version() (major, minor uint16) { return c.major, c.minor }

func readPool(r *reader) ([]cpEntry, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	pool := make([]cpEntry, count)
	for i := 1; i < count; i++ {
		tag := r.u1()
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			e.utf8 = string(r.bytes(int(r.u2())))
		case tagClass, tagModule, tagPackage:
			e.index = r.u2()
		case tagString, tagMethodType:
			r.skip(2)
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			r.skip(4)
		case tagLong, tagDouble:
			r.skip(8)
			pool[i] = e
			i++ // eight-byte constants occupy two slots
			continue
		case tagMethodHandle:
			r.skip(3)
		default:
			if r.err != nil {
				return nil, r.err
			}
			return nil, fmt.Errorf("%w: unknown constant pool tag %d at index %d", ErrMalformedClass, tag, i)
		}
		if r.err != nil {
			return nil, r.err
		}
		pool[i] = e
	}
	return pool, nil
}

func readMembers(r *reader, pool []cpEntry) ([]string, error) {
	n := r.u2()
	if r.err != nil {
		return nil, r.err
	}
	names := make([]string, 0, n)
	for range n {
		r.skip(2) // access flags
		name, err := utf8At(pool, r.u2())
		if err != nil {
			return nil, err
		}
		r.skip(2) // descriptor
		if err := skipAttributes(r); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func skipAttributes(r *reader) error {
	n := r.u2()
	for range n {
		r.skip(2)
		r.skip(int(r.u4()))
	}
	return r.err
}

func utf8At(pool []cpEntry, idx uint16) (string, error) {
	if int(idx) <= 0 || int(idx) >= len(pool) || pool[idx].tag != tagUtf8 {
		return "", fmt.Errorf("%w: constant %d is not a UTF-8 entry", ErrMalformedClass, idx)
	}
	return pool[idx].utf8, nil
}

func className(pool []cpEntry, idx uint16) (string, error) {
	if int(idx) <= 0 || int(idx) >= len(pool) || pool[idx].tag != tagClass {
		return "", fmt.Errorf("%w: constant %d is not a class entry", ErrMalformedClass, idx)
	}
	internal, err := utf8At(pool, pool[idx].index)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(internal, "/", "."), nil
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: truncated at offset %d", ErrMalformedClass, r.off)
		return false
	}
	return true
}

func (r *reader) u1() byte {
	if !r.need(1) {
		return 0
	}
	b := r.data[r.off]
	r.off++
	return b
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) skip(n int) {
	if r.need(n) {
		r.off += n
	}
}
