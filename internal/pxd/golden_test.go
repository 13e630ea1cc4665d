// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pxd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
	"golang.org/x/tools/txtar"

	"github.com/pdiddy/pxdgen/pkg/types"
)

// TestGolden renders every testdata/*.txtar archive. An archive holds an
// input.json document, the expected want.pxd, and an optional config.yaml
// decoded into types.ConvertConfig.
func TestGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			require.NoError(t, err)

			sections := map[string][]byte{}
			for _, f := range ar.Files {
				sections[f.Name] = f.Data
			}
			input, ok := sections["input.json"]
			require.True(t, ok, "%s has no input.json", file)
			want, ok := sections["want.pxd"]
			require.True(t, ok, "%s has no want.pxd", file)

			var cfg types.ConvertConfig
			if data, ok := sections["config.yaml"]; ok {
				require.NoError(t, yaml.Unmarshal(data, &cfg))
			}

			var out bytes.Buffer
			_, err = ConvertBytes(input, &out, cfg, quietLogger)
			require.NoError(t, err)
			assert.Equal(t, string(want), out.String())
		})
	}
}
