// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// ClassSpec describes a minimal class file. Names are dotted binary names
// ("a.b.C", "a.b.C$Inner"). An empty Super means java.lang.Object.
type ClassSpec struct {
	Name       string
	Super      string
	Interfaces []string
	Fields     []string
	Methods    []string
}

// ClassEntry returns the archive entry holding the class file for spec.
func ClassEntry(spec ClassSpec) Entry {
	return Entry{
		Name: strings.ReplaceAll(spec.Name, ".", "/") + ".class",
		Data: ClassFile(spec),
	}
}

// ClassFile assembles a structurally valid class file for spec. The constant
// pool also carries a Long, a String and a Methodref so parsers exercise the
// double-slot and reference constant kinds.
func ClassFile(spec ClassSpec) []byte {
	cp := &constPool{utf8: map[string]uint16{}, classes: map[string]uint16{}}

	this := cp.class(spec.Name)
	var super uint16
	switch {
	case spec.Name == "java.lang.Object":
	case spec.Super == "":
		super = cp.class("java.lang.Object")
	default:
		super = cp.class(spec.Super)
	}
	ifaces := make([]uint16, len(spec.Interfaces))
	for i, n := range spec.Interfaces {
		ifaces[i] = cp.class(n)
	}

	cp.long(42)
	cp.string("fixture")
	cp.methodref(this, "<init>", "()V")

	type member struct{ name, desc uint16 }
	fields := make([]member, len(spec.Fields))
	for i, n := range spec.Fields {
		fields[i] = member{cp.utf(n), cp.utf("Ljava/lang/Object;")}
	}
	methods := make([]member, len(spec.Methods))
	for i, n := range spec.Methods {
		methods[i] = member{cp.utf(n), cp.utf("()V")}
	}
	code := cp.utf("Code")

	var buf bytes.Buffer
	w := func(v any) { _ = binary.Write(&buf, binary.BigEndian, v) }

	w(uint32(0xCAFEBABE))
	w(uint16(0))  // minor
	w(uint16(52)) // major: Java 8
	w(cp.count())
	buf.Write(cp.buf.Bytes())
	w(uint16(0x0021)) // ACC_PUBLIC | ACC_SUPER
	w(this)
	w(super)
	w(uint16(len(ifaces)))
	for _, i := range ifaces {
		w(i)
	}
	w(uint16(len(fields)))
	for _, f := range fields {
		w(uint16(0x0002))
		w(f.name)
		w(f.desc)
		w(uint16(0))
	}
	w(uint16(len(methods)))
	for _, m := range methods {
		w(uint16(0x0001))
		w(m.name)
		w(m.desc)
		w(uint16(1)) // one opaque Code attribute
		w(code)
		w(uint32(4))
		buf.Write([]byte{0xB1, 0x00, 0x00, 0x00})
	}
	w(uint16(0)) // class attributes
	return buf.Bytes()
}

type constPool struct {
	buf     bytes.Buffer
	next    uint16
	utf8    map[string]uint16
	classes map[string]uint16
}

// count is constant_pool_count: one past the highest index in use.
func (c *constPool) count() uint16 {
	if c.next == 0 {
		return 1
	}
	return c.next
}

func (c *constPool) slot(n uint16) uint16 {
	if c.next == 0 {
		c.next = 1
	}
	idx := c.next
	c.next += n
	return idx
}

func (c *constPool) utf(s string) uint16 {
	if idx, ok := c.utf8[s]; ok {
		return idx
	}
	idx := c.slot(1)
	c.buf.WriteByte(1)
	_ = binary.Write(&c.buf, binary.BigEndian, uint16(len(s)))
	c.buf.WriteString(s)
	c.utf8[s] = idx
	return idx
}

func (c *constPool) class(dotted string) uint16 {
	internal := strings.ReplaceAll(dotted, ".", "/")
	if idx, ok := c.classes[internal]; ok {
		return idx
	}
	name := c.utf(internal)
	idx := c.slot(1)
	c.buf.WriteByte(7)
	_ = binary.Write(&c.buf, binary.BigEndian, name)
	c.classes[internal] = idx
	return idx
}

func (c *constPool) long(v int64) {
	c.slot(2)
	c.buf.WriteByte(5)
	_ = binary.Write(&c.buf, binary.BigEndian, v)
}

func (c *constPool) string(s string) {
	u := c.utf(s)
	c.slot(1)
	c.buf.WriteByte(8)
	_ = binary.Write(&c.buf, binary.BigEndian, u)
}

func (c *constPool) methodref(class uint16, name, desc string) {
	n, d := c.utf(name), c.utf(desc)
	nat := c.slot(1)
	c.buf.WriteByte(12)
	_ = binary.Write(&c.buf, binary.BigEndian, n)
	_ = binary.Write(&c.buf, binary.BigEndian, d)
	c.slot(1)
	c.buf.WriteByte(10)
	_ = binary.Write(&c.buf, binary.BigEndian, class)
	_ = binary.Write(&c.buf, binary.BigEndian, nat)
}
