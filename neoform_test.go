package neoform_test

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/neoform"
	"github.com/aretw0/neoform/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const descriptor = `{
  "version": "1.21",
  "java_target": 21,
  "libraries": {"client": ["com.mojang:logging:1.2.7"]},
  "data": {"mappings": "config/joined.tsrg", "inject": "inject/", "patches": {"client": "patches/client/", "server": "patches/server/"}},
  "steps": {
    "client": [
      {"type": "downloadManifest"},
      {"type": "downloadJson"},
      {"type": "downloadClient"},
      {"type": "listLibraries"},
      {"type": "strip", "input": "{downloadClientOutput}"},
      {"type": "rename", "input": "{stripOutput}"},
      {"type": "inject", "input": "{renameOutput}"},
      {"type": "patch", "input": "{injectOutput}"}
    ],
    "server": [
      {"type": "downloadManifest"},
      {"type": "downloadJson"},
      {"type": "downloadServer"},
      {"type": "listLibraries"},
      {"type": "strip", "input": "{downloadServerOutput}"},
      {"type": "inject", "input": "{stripOutput}"},
      {"type": "patch", "input": "{injectOutput}"}
    ]
  },
  "functions": {
    "rename": {"version": "net.neoforged:autorenamingtool:2.0.3:all", "args": ["--input", "{input}", "--map", "{mappings}", "--output", "{output}"]}
  }
}`

func archive(t *testing.T, config string) *zip.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("config.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(config))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return r
}

func TestEngine_Plan(t *testing.T) {
	eng := neoform.New(neoform.WithStrictParameters())
	plan, err := eng.Plan(archive(t, descriptor), "client", domain.String("neoform.zip"))
	require.NoError(t, err)

	assert.Equal(t, "client", plan.Dist)
	assert.Len(t, plan.Order, len(plan.Config.Tasks))
	assert.Equal(t, "recompile", plan.Order[len(plan.Order)-1])
	assert.Len(t, plan.Key(), 64)

	deps, err := plan.Dependencies()
	require.NoError(t, err)
	assert.Equal(t, []string{"strip", "generated_retrieve_mappings"}, deps["rename"])
}

func TestEngine_PlanKey(t *testing.T) {
	self := domain.String("neoform.zip")
	key := func(eng *neoform.Engine, dist string) string {
		t.Helper()
		p, err := eng.Plan(archive(t, descriptor), dist, self)
		require.NoError(t, err)
		return p.Key()
	}

	base := key(neoform.New(), "client")
	assert.Equal(t, base, key(neoform.New(), "client"), "keys are stable")
	assert.NotEqual(t, base, key(neoform.New(), "server"))
	assert.NotEqual(t, base, key(neoform.New(neoform.WithParchmentData("parchment.zip")), "client"))
	assert.NotEqual(t, base, key(neoform.New(neoform.WithAccessTransformers("a.cfg")), "client"))
}

func TestEngine_PlanErrors(t *testing.T) {
	eng := neoform.New()

	_, err := eng.Plan(archive(t, descriptor), "joined", domain.String("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidDescriptor)

	_, err = eng.Plan(archive(t, descriptor), "client", nil)
	assert.Error(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	require.NoError(t, zw.Close())
	empty, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	_, err = eng.Plan(empty, "client", domain.String("x"))
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestEngine_PlanFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "neoform-1.21.zip")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("config.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(descriptor))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	plan, err := neoform.New(neoform.WithInterfaceInjectionData("injections.json")).PlanFile(path, "server")
	require.NoError(t, err)
	assert.Equal(t, domain.String(path), plan.Config.Parameters[domain.ParamSelfReference])

	recompile, ok := plan.Config.Task("recompile")
	require.True(t, ok)
	assert.Len(t, recompile.(domain.Compile).Stubs, 1)

	_, err = neoform.New().PlanFile(filepath.Join(dir, "missing.zip"), "client")
	assert.Error(t, err)
}

func TestDistributions(t *testing.T) {
	dists, err := neoform.Distributions(archive(t, descriptor))
	require.NoError(t, err)
	assert.Equal(t, []string{"client", "server"}, dists)
}
