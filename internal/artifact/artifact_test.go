package artifact_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheelhouse/internal/artifact"
)

func TestParse(t *testing.T) {
	cases := []struct {
		raw       string
		name      string
		version   string
		specifier string
		extras    []string
	}{
		{raw: "torch==2.1.2", name: "torch", version: "2.1.2"},
		{raw: "librosa==0.10.2.post1", name: "librosa", version: "0.10.2.post1"},
		{raw: "ruamel.yaml", name: "ruamel.yaml"},
		{raw: "opencv-python == 4.10.0.84", name: "opencv-python", version: "4.10.0.84"},
		{raw: "uvicorn[standard]==0.30.0", name: "uvicorn", version: "0.30.0", extras: []string{"standard"}},
		{raw: "numpy>=1.26", name: "numpy", specifier: ">=1.26"},
		{raw: "torch==2.*", name: "torch", specifier: "==2.*"},
		{raw: `pywin32==306; sys_platform == "win32"`, name: "pywin32", version: "306"},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			art, err := artifact.Parse(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.name, art.Name)
			assert.Equal(t, tc.version, art.Version)
			assert.Equal(t, tc.specifier, art.Specifier)
			assert.Equal(t, tc.extras, art.Extras)
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "torch 2.1.2", "-torch"} {
		_, err := artifact.Parse(raw)
		assert.Error(t, err, raw)
	}
}

func TestCacheName(t *testing.T) {
	name, err := artifact.MustParse("torch==2.1.2").CacheName()
	require.NoError(t, err)
	assert.Equal(t, "torch-2.1.2-*.whl", name)

	name, err = artifact.MustParse("ruamel.yaml").CacheName()
	require.NoError(t, err)
	assert.Equal(t, "ruamel_yaml-*.whl", name)

	_, err = artifact.MustParse("numpy>=1.26").CacheName()
	assert.True(t, errors.Is(err, artifact.ErrNoCacheName))
}

func TestMatchesWheel(t *testing.T) {
	cases := []struct {
		req   string
		wheel string
		want  bool
	}{
		{"torch==2.1.2", "torch-2.1.2-cp310-cp310-manylinux1_x86_64.whl", true},
		{"torch==2.0.0", "torch-2.0.0+cu118-cp310-cp310-linux_x86_64.whl", true},
		{"torch==2.0.0+cu118", "torch-2.0.0-cp310-cp310-linux_x86_64.whl", false},
		{"torch==2.1.2", "torch-2.1.20-cp310-cp310-manylinux1_x86_64.whl", false},
		{"torch==2.1.2", "torchaudio-2.1.2-cp310-cp310-manylinux1_x86_64.whl", false},
		{"PyYAML==6.0.2", "PyYAML-6.0.2-cp310-cp310-manylinux_2_17_x86_64.whl", true},
		{"ruamel.yaml", "ruamel.yaml-0.18.6-py3-none-any.whl", true},
		{"ruamel.yaml", "ruamel_yaml-0.18.6-py3-none-any.whl", true},
		{"g2p-en", "g2p_en-2.1.0-py3-none-any.whl", true},
		{"rich", "rich-13.7.1.tar.gz", false},
		{"numpy>=1.26", "numpy-1.26.4-cp310-cp310-manylinux_2_17_x86_64.whl", false},
		{"ctranslate2==4.4.0", "ctranslate2-4.4.0-1-cp310-cp310-manylinux_2_17_x86_64.whl", true},
	}
	for _, tc := range cases {
		t.Run(tc.req+"/"+tc.wheel, func(t *testing.T) {
			assert.Equal(t, tc.want, artifact.MustParse(tc.req).MatchesWheel(tc.wheel))
		})
	}
}

func TestParseWheelFilename(t *testing.T) {
	wheel, err := artifact.ParseWheelFilename("torch-2.0.0+cu118-cp310-cp310-linux_x86_64.whl")
	require.NoError(t, err)
	assert.Equal(t, "torch", wheel.Distribution)
	assert.Equal(t, "2.0.0", wheel.PublicVersion())
	assert.Equal(t, "cu118", wheel.LocalLabel())
	assert.Equal(t, "linux_x86_64", wheel.Platform)

	_, err = artifact.ParseWheelFilename("torch==2.1.2.whl")
	assert.Error(t, err)
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "ruamel-yaml", artifact.CanonicalName("Ruamel_.YAML"))
	assert.Equal(t, "ruamel_yaml", artifact.EscapeName("ruamel.yaml"))
}
