// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atomos-cli/internal/issue"
	"atomos-cli/internal/report"
	"atomos-cli/internal/substrate"
	"atomos-cli/internal/testutil"
	"atomos-cli/pkg/archive"
)

const descriptor = `<scr:component xmlns:scr="http://www.osgi.org/xmlns/scr/v1.3.0" name="greeter" activate="start">
  <implementation class="svc.Greeter"/>
  <reference name="log" interface="svc.Log" bind="setLog"/>
</scr:component>`

func inputs(t *testing.T, dir string) []string {
	t.Helper()
	a := testutil.WriteArchive(t, dir, "a.jar", testutil.ArchiveSpec{
		Manifest: map[string]string{
			archive.HeaderBundleSymbolicName: "svc.a",
			archive.HeaderBundleVersion:      "1.2.3",
			archive.HeaderBundleActivator:    "svc.Activator",
			archive.HeaderServiceComponent:   "OSGI-INF/greeter.xml",
		},
		Entries: []testutil.Entry{
			testutil.TextEntry("OSGI-INF/greeter.xml", descriptor),
			testutil.ClassEntry(testutil.ClassSpec{Name: "svc.Activator", Methods: []string{"<init>"}}),
			testutil.ClassEntry(testutil.ClassSpec{Name: "svc.Greeter", Methods: []string{"<init>", "start"}}),
			testutil.TextEntry("resources/msg_fr.properties", "hello=bonjour"),
		},
	})
	b := testutil.WriteArchive(t, dir, "b.jar", testutil.ArchiveSpec{
		Manifest: map[string]string{archive.HeaderBundleSymbolicName: "svc.b"},
		Entries:  []testutil.Entry{testutil.TextEntry("img/logo.png", "png")},
	})
	return []string{a, b}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	paths := inputs(t, dir)
	out := filepath.Join(dir, "out")

	res, err := Run(context.Background(), Options{
		Archives:          paths,
		OutputDir:         out,
		ExtraInitPackages: []string{"org.extra"},
		MainClass:         "svc.Main",
		ImageName:         "app",
		Logger:            log.New(io.Discard),
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, ReflectionConfigName), res.ReflectionConfigPath)
	assert.Equal(t, filepath.Join(out, ResourceConfigName), res.ResourceConfigPath)
	assert.Equal(t, filepath.Join(out, substrate.DefaultFileName), res.Substrate.Path)
	assert.Equal(t, append(append([]string{}, paths...), res.Substrate.Path), res.Classpath)

	var reflection []map[string]any
	data, err := os.ReadFile(res.ReflectionConfigPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &reflection))
	var names []string
	for _, c := range reflection {
		names = append(names, c["name"].(string))
	}
	assert.Equal(t, []string{"svc.Activator", "svc.Greeter", "svc.Log"}, names)

	data, err = os.ReadFile(res.ResourceConfigPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"bundles": [{"name": "resources.msg"}],
		"resources": [{"pattern": "img/logo.png"}]
	}`, string(data))

	assert.Contains(t, res.BuildArgs, "--initialize-at-build-time=org.extra,resources")
	assert.Contains(t, res.BuildArgs, "-H:ReflectionConfigurationFiles="+res.ReflectionConfigPath)
	assert.Contains(t, res.BuildArgs, "-H:Class=svc.Main")
	assert.Equal(t, "-H:Name=app", res.BuildArgs[len(res.BuildArgs)-1])

	require.Len(t, res.Reflection.Warnings, 1, "setLog is not declared")
	assert.Equal(t, "setLog", res.Reflection.Warnings[0].Member)
}

func TestResult_Report(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(context.Background(), Options{
		Archives:  inputs(t, dir),
		OutputDir: filepath.Join(dir, "out"),
		ImageName: "app",
		Logger:    log.New(io.Discard),
	})
	require.NoError(t, err)

	rep := res.Report()
	require.Len(t, rep.Archives, 2)
	assert.Equal(t, report.Archive{ID: 0, Path: res.Substrate.Infos[0].Path, SymbolicName: "svc.a", Version: "1.2.3", Retained: 1}, rep.Archives[0])
	assert.Equal(t, 3, rep.Reflection.Classes)
	assert.Equal(t, 1, rep.Resources.Bundles)
	assert.Equal(t, []string{"resources"}, rep.Resources.InitializeAtBuildTime)
	assert.Len(t, rep.Warnings, 1)

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, rep))
	back, err := report.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, rep.Artifacts, back.Artifacts)
}

func TestRun_DirMode(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(context.Background(), Options{
		Archives:      inputs(t, dir),
		OutputDir:     filepath.Join(dir, "out"),
		SubstrateMode: substrate.ModeDir,
		ImageName:     "app",
		Logger:        log.New(io.Discard),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", substrate.DirName), res.Substrate.Path)
	assert.FileExists(t, filepath.Join(res.Substrate.Path, "1", "img", "logo.png"))
}

func TestRun_SubstrateRulesOnlyAffectSubstrate(t *testing.T) {
	dir := t.TempDir()
	keep := archive.SubstrateRules()
	res, err := Run(context.Background(), Options{
		Archives:       inputs(t, dir),
		OutputDir:      filepath.Join(dir, "out"),
		SubstrateRules: &keep,
		ImageName:      "app",
		Logger:         log.New(io.Discard),
	})
	require.NoError(t, err)

	assert.Contains(t, res.Substrate.Infos[0].Files, "OSGI-INF/greeter.xml")
	assert.Contains(t, res.Substrate.Infos[0].Files, "META-INF/MANIFEST.MF")

	data, err := os.ReadFile(res.ResourceConfigPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "OSGI-INF")
	assert.NotContains(t, string(data), "MANIFEST")
}

func TestRun_FatalError(t *testing.T) {
	dir := t.TempDir()
	paths := inputs(t, dir)
	broken := filepath.Join(dir, "broken.jar")
	testutil.MustWriteFile(t, broken, []byte("not a zip"))
	out := filepath.Join(dir, "out")

	res, err := Run(context.Background(), Options{
		Archives:  append(paths, broken),
		OutputDir: out,
		ImageName: "app",
		Logger:    log.New(io.Discard),
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, archive.ErrNotArchive)
	_, ok := issue.As(err)
	assert.True(t, ok, "fatal pass errors are actionable")
	assert.NoFileExists(t, filepath.Join(out, ReflectionConfigName))
	assert.NoFileExists(t, filepath.Join(out, ResourceConfigName))
}

func TestRun_ImageNameRequired(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(context.Background(), Options{
		Archives:  inputs(t, dir),
		OutputDir: filepath.Join(dir, "out"),
		Logger:    log.New(io.Discard),
	})
	require.Error(t, err)
}
