// SPDX-License-Identifier: MPL-2.0

package classfile

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atomos-cli/internal/testutil"
)

func TestParseBytes(t *testing.T) {
	data := testutil.ClassFile(testutil.ClassSpec{
		Name:       "com.example.C$Inner",
		Super:      "com.example.Base",
		Interfaces: []string{"I.Face", "java.io.Serializable"},
		Fields:     []string{"svc", "count"},
		Methods:    []string{"<init>", "start", "stop"},
	})

	c, err := ParseBytes(data)
	require.NoError(t, err)

	assert.Equal(t, "com.example.C$Inner", c.Name())
	assert.Equal(t, "com.example.Base", c.Superclass())
	assert.Equal(t, []string{"I.Face", "java.io.Serializable"}, c.Interfaces())
	assert.Equal(t, []string{"svc", "count"}, c.DeclaredFields())
	assert.Equal(t, []string{"<init>", "start", "stop"}, c.DeclaredMethods())
	assert.Equal(t, uint16(0x0021), c.AccessFlags())
	major, minor := c.Version()
	assert.Equal(t, uint16(52), major)
	assert.Equal(t, uint16(0), minor)
}

func TestParseBytes_ObjectHasNoSuperclass(t *testing.T) {
	c, err := ParseBytes(testutil.ClassFile(testutil.ClassSpec{Name: ObjectClass}))
	require.NoError(t, err)
	assert.Empty(t, c.Superclass())
}

func TestParse_Reader(t *testing.T) {
	data := testutil.ClassFile(testutil.ClassSpec{Name: "a.B", Methods: []string{"run"}})
	c, err := Parse(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "a.B", c.Name())
	assert.Equal(t, ObjectClass, c.Superclass())
}

func TestParseBytes_Malformed(t *testing.T) {
	valid := testutil.ClassFile(testutil.ClassSpec{Name: "a.B", Fields: []string{"f"}, Methods: []string{"m"}})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte{0xCA, 0xFE, 0xBA, 0xBF, 0, 0, 0, 52}},
		{"truncated header", valid[:6]},
		{"truncated pool", valid[:20]},
		{"truncated members", valid[:len(valid)-5]},
		{"unknown tag", append(append([]byte{}, valid[:10]...), 99)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes(tt.data)
			require.ErrorIs(t, err, ErrMalformedClass)
		})
	}
}

func TestDeclaringClass(t *testing.T) {
	m := NewMapModel(
		Static{ClassName: "p.Base", Fields: []string{"shared"}, Methods: []string{"start"}},
		Static{ClassName: "p.Mid", Super: "p.Base", Fields: []string{"shared"}},
		Static{ClassName: "p.C", Super: "p.Mid", Fields: []string{"svc"}},
		Static{ClassName: "p.Orphan", Super: "p.Missing"},
		Static{ClassName: "p.Loop1", Super: "p.Loop2"},
		Static{ClassName: "p.Loop2", Super: "p.Loop1"},
	)

	tests := []struct {
		name    string
		class   string
		member  string
		kind    MemberKind
		want    string
		wantErr error
	}{
		{"declared on leaf", "p.C", "svc", MemberField, "p.C", nil},
		{"inherited method", "p.C", "start", MemberMethod, "p.Base", nil},
		{"nearest declaration wins", "p.C", "shared", MemberField, "p.Mid", nil},
		{"kinds are separate", "p.C", "start", MemberField, "", ErrMemberNotFound},
		{"missing member", "p.C", "nope", MemberMethod, "", ErrMemberNotFound},
		{"unknown class", "p.Nope", "x", MemberField, "", ErrClassNotFound},
		{"broken chain", "p.Orphan", "x", MemberField, "", ErrClassNotFound},
		{"cyclic chain terminates", "p.Loop1", "x", MemberMethod, "", ErrMemberNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeclaringClass(m, tt.class, tt.member, tt.kind)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoader(t *testing.T) {
	dir := t.TempDir()
	first := testutil.WriteArchive(t, dir, "first.jar", testutil.ArchiveSpec{
		Entries: []testutil.Entry{
			testutil.DirEntry("p"),
			testutil.ClassEntry(testutil.ClassSpec{Name: "p.Base", Methods: []string{"start"}}),
			testutil.ClassEntry(testutil.ClassSpec{Name: "p.Dup", Fields: []string{"fromFirst"}}),
			testutil.TextEntry("module-info.class", "not parsed"),
			testutil.TextEntry("p/package-info.class", "not parsed"),
			testutil.TextEntry("META-INF/versions/11/p/Base.class", "not parsed"),
		},
	})
	second := testutil.WriteArchive(t, dir, "second.jar", testutil.ArchiveSpec{
		Entries: []testutil.Entry{
			testutil.ClassEntry(testutil.ClassSpec{Name: "q.C", Super: "p.Base", Fields: []string{"svc"}}),
			testutil.ClassEntry(testutil.ClassSpec{Name: "p.Dup", Fields: []string{"fromSecond"}}),
			{Name: "q/Lie.class", Data: testutil.ClassFile(testutil.ClassSpec{Name: "q.Other"})},
		},
	})

	l, err := NewLoader([]string{first, second}, WithCacheSize(1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	assert.Equal(t, 4, l.Len())

	owner, err := DeclaringClass(l, "q.C", "start", MemberMethod)
	require.NoError(t, err)
	assert.Equal(t, "p.Base", owner, "superclass resolved across archives")

	dup, err := l.Load("p.Dup")
	require.NoError(t, err)
	assert.Equal(t, []string{"fromFirst"}, dup.DeclaredFields(), "first archive wins")

	// Evicted entries are re-read transparently.
	again, err := l.Load("q.C")
	require.NoError(t, err)
	assert.Equal(t, "p.Base", again.Superclass())

	_, err = l.Load("q.Lie")
	require.ErrorIs(t, err, ErrMalformedClass)

	_, err = l.Load("p.Missing")
	require.ErrorIs(t, err, ErrClassNotFound)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	_, err = l.Load("p.Base")
	require.ErrorIs(t, err, ErrLoaderClosed)

	// Closed loaders release their files.
	require.NoError(t, os.Remove(first))
	require.NoError(t, os.Remove(second))
}

func TestNewLoader_ClosesOnFailure(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteArchive(t, dir, "good.jar", testutil.ArchiveSpec{})
	bad := dir + "/bad.jar"
	testutil.MustWriteFile(t, bad, []byte("garbage"))

	_, err := NewLoader([]string{good, bad})
	require.Error(t, err)
	require.NoError(t, os.Remove(good))
}
