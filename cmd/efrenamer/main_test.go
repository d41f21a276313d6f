package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const model = `<?xml version="1.0" encoding="utf-8"?>
<edmx:Edmx Version="3.0" xmlns:edmx="http://schemas.microsoft.com/ado/2009/11/edmx">
  <edmx:Runtime>
    <edmx:ConceptualModels>
      <Schema Namespace="ShopModel" xmlns="http://schemas.microsoft.com/ado/2009/11/edm">
        <EntityContainer Name="ShopEntities">
          <EntitySet Name="order_line" EntityType="ShopModel.order_line" />
        </EntityContainer>
        <EntityType Name="order_line">
          <Property Name="line_no" Type="Int32" />
        </EntityType>
      </Schema>
    </edmx:ConceptualModels>
    <edmx:Mappings>
      <Mapping Space="C-S" xmlns="http://schemas.microsoft.com/ado/2009/11/mapping/cs" />
    </edmx:Mappings>
  </edmx:Runtime>
</edmx:Edmx>
`

func newFlagSet() *pflag.FlagSet {
	return pflag.NewFlagSet("efrenamer", pflag.ContinueOnError)
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer

	waitExit, err := run(newFlagSet(), []string{"--version"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.False(t, waitExit)
	assert.Equal(t, "efrenamer dev (none)\n", stdout.String())
}

func TestRun_ValidationFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer

	waitExit, err := run(newFlagSet(), []string{"-e", "--naming.plural_mode", "sideways"}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
	assert.True(t, waitExit, "wait_exit applies to failed runs too")
	assert.Contains(t, stderr.String(), "Usage: efrenamer")
	assert.Contains(t, stderr.String(), "--model.file")
	assert.Empty(t, stdout.String())
}

func TestRun_UnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer

	_, err := run(newFlagSet(), []string{"--no-such-flag"}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestRun_RenamesModelFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Shop.edmx")
	require.NoError(t, os.WriteFile(path, []byte(model), 0o644))

	var stdout, stderr bytes.Buffer
	waitExit, err := run(newFlagSet(), []string{"-t", "order_line", path}, &stdout, &stderr)

	require.NoError(t, err)
	assert.False(t, waitExit)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<EntitySet Name="OrderLines" EntityType="ShopModel.OrderLine"/>`)
	assert.Contains(t, string(data), `<Property Name="LineNo" Type="Int32"/>`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "model plus its backup")
	assert.Contains(t, stderr.String(), "diagram not found, skipping")
	assert.Contains(t, stderr.String(), "run complete")
}
