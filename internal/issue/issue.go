// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"maps"
)

type Id int

const (
	ArchiveOpenFailedId Id = iota + 1
	ManifestUnreadableId
	DescriptorMissingId
	DescriptorMalformedId
	OutputNotWritableId
	NativeImageNotFoundId
	NativeImageFailedId
	ConfigLoadFailedId
	NoArchivesId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // reference documentation for the failing input
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the guidance as terminal markdown with the given glamour
// style ("dark", "light", "notty" or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	archiveOpenFailedIssue = &Issue{
		id: ArchiveOpenFailedId,
		mdMsg: `
# Archive could not be opened!

One of the input bundles is not a readable zip archive. Every input must be a
valid jar, because a partially read bundle set would produce incomplete
reflection and resource configuration.

## Things you can try:
- Check that the path points at a jar and not at a directory or a pom
- Rebuild the bundle; a truncated download also shows up this way
~~~
$ unzip -t path/to/bundle.jar
~~~`,
	}

	manifestUnreadableIssue = &Issue{
		id: ManifestUnreadableId,
		mdMsg: `
# Bundle manifest is unreadable!

The archive contains a META-INF/MANIFEST.MF that does not follow the jar
manifest format: every line must be "Name: value" or a continuation line that
starts with a single space.

## Things you can try:
- Inspect the manifest:
~~~
$ unzip -p path/to/bundle.jar META-INF/MANIFEST.MF
~~~
- Regenerate it with your bundle tooling (bnd, maven-bundle-plugin)`,
		docLinks: []HttpLink{"https://docs.oracle.com/en/java/javase/17/docs/specs/jar/jar.html"},
	}

	descriptorMissingIssue = &Issue{
		id: DescriptorMissingId,
		mdMsg: `
# Component descriptor not found!

The bundle manifest lists a descriptor in its Service-Component header, but
the archive has no entry at that path. The bundle would fail to activate its
components at runtime as well.

## Things you can try:
- Compare the Service-Component header with the OSGI-INF entries:
~~~
$ unzip -l path/to/bundle.jar 'OSGI-INF/*'
~~~
- Use a wildcard such as OSGI-INF/*.xml if descriptors are generated`,
		docLinks: []HttpLink{"https://docs.osgi.org/specification/osgi.cmpn/8.0.0/service.component.html"},
	}

	descriptorMalformedIssue = &Issue{
		id: DescriptorMalformedId,
		mdMsg: `
# Component descriptor is malformed!

A declarative services descriptor could not be parsed. Reflection
configuration derived from it cannot be trusted, so the build stops.

## Things you can try:
- Check that the XML is well formed and every component has an
  implementation element with a class attribute
- Check that every reference declares an interface`,
		docLinks: []HttpLink{"https://docs.osgi.org/specification/osgi.cmpn/8.0.0/service.component.html"},
	}

	outputNotWritableIssue = &Issue{
		id: OutputNotWritableId,
		mdMsg: `
# Output could not be written!

The output directory is not writable or a previous artifact is in the way.

## Things you can try:
- Choose another directory with --output
- Remove stale artifacts from the output directory`,
	}

	nativeImageNotFoundIssue = &Issue{
		id: NativeImageNotFoundId,
		mdMsg: `
# native-image not found!

No GraalVM native-image executable was found. The search order is the
configured path, PATH, $GRAAL_HOME and $JAVA_HOME.

## Things you can try:
- Install the native-image component of GraalVM
- Point the tool at it explicitly:
~~~
$ atomos build --exec --native-image /opt/graalvm/bin/native-image ...
~~~
- Or set native_image_executable in the config file, or export
  ATOMOS_NATIVE_IMAGE_EXECUTABLE or GRAAL_HOME`,
		docLinks: []HttpLink{"https://www.graalvm.org/latest/reference-manual/native-image/"},
	}

	nativeImageFailedIssue = &Issue{
		id: NativeImageFailedId,
		mdMsg: `
# native-image failed!

The generated configuration was handed to native-image, which exited with an
error. Its own output above describes the failure.

## Things you can try:
- Re-run with --dry-run to see the exact command line
- Add packages to --init-at-build-time if class initialization is reported`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Show where the configuration is looked up:
~~~
$ atomos config path
~~~
- Write a fresh default file:
~~~
$ atomos config init
~~~`,
	}

	noArchivesIssue = &Issue{
		id: NoArchivesId,
		mdMsg: `
# No bundles to process!

Neither archive arguments nor a classpath directory with jars were given.

## Things you can try:
- Pass jars as arguments, or point --classpath at a directory of jars`,
	}

	issues = map[Id]*Issue{
		archiveOpenFailedIssue.Id():   archiveOpenFailedIssue,
		manifestUnreadableIssue.Id():  manifestUnreadableIssue,
		descriptorMissingIssue.Id():   descriptorMissingIssue,
		descriptorMalformedIssue.Id(): descriptorMalformedIssue,
		outputNotWritableIssue.Id():   outputNotWritableIssue,
		nativeImageNotFoundIssue.Id(): nativeImageNotFoundIssue,
		nativeImageFailedIssue.Id():   nativeImageFailedIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		noArchivesIssue.Id():          noArchivesIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, id := range slices.Sorted(maps.Keys(issues)) {
		out = append(out, issues[id])
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
