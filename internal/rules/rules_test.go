package rules

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	raw := `# full-name rules
cust_id = CustomerId

order_hdr=OrderHeader
`
	table, warnings := Parse(raw, "names.txt", false)

	assert.Empty(t, warnings)
	assert.Equal(t, 2, table.Len())
	value, ok := table.Lookup("cust_id")
	require.True(t, ok)
	assert.Equal(t, "CustomerId", value)
	value, ok = table.Lookup("order_hdr")
	require.True(t, ok)
	assert.Equal(t, "OrderHeader", value)
}

func TestParse_MalformedLines(t *testing.T) {
	raw := "no_separator\na=b=c\nok=Fine\n"
	table, warnings := Parse(raw, "names.txt", false)

	require.Len(t, warnings, 2)
	assert.Equal(t, 1, warnings[0].Line)
	assert.Equal(t, reasonMalformed, warnings[0].Reason)
	assert.Equal(t, 2, warnings[1].Line)

	value, ok := table.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "b", value)
	_, ok = table.Lookup("no_separator")
	assert.False(t, ok)
	assert.Equal(t, 2, table.Len())
}

func TestParse_DuplicateKeepsFirst(t *testing.T) {
	t.Run("case sensitive", func(t *testing.T) {
		table, warnings := Parse("id=Key\nID=Ident\nid=Other\n", "parts.txt", false)

		require.Len(t, warnings, 1)
		assert.Equal(t, 3, warnings[0].Line)
		assert.Equal(t, reasonDuplicate, warnings[0].Reason)
		value, _ := table.Lookup("id")
		assert.Equal(t, "Key", value)
		value, _ = table.Lookup("ID")
		assert.Equal(t, "Ident", value)
	})

	t.Run("case insensitive", func(t *testing.T) {
		table, warnings := Parse("id=Key\nID=Ident\n", "parts.txt", true)

		require.Len(t, warnings, 1)
		assert.Equal(t, 2, warnings[0].Line)
		value, _ := table.Lookup("Id")
		assert.Equal(t, "Key", value)
	})
}

func TestWarning_String(t *testing.T) {
	w := Warning{File: "names.txt", Line: 4, Text: "bad", Reason: reasonMalformed}
	assert.Equal(t, `names.txt:4: malformed entry: "bad"`, w.String())
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/rules/names.txt", []byte("person=Human\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/rules/parts.txt", []byte("qty=Quantity\nqty=Amount\n"), 0o644))

	rules, warnings, err := Load(fs, Config{
		NameMapFile:     "/rules/names.txt",
		PartMapFile:     "/rules/parts.txt",
		CaseInsensitive: true,
	})
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, "/rules/parts.txt", warnings[0].File)
	assert.True(t, rules.CaseInsensitive)
	value, ok := rules.Names.Lookup("PERSON")
	require.True(t, ok)
	assert.Equal(t, "Human", value)
	value, ok = rules.Parts.Lookup("qty")
	require.True(t, ok)
	assert.Equal(t, "Quantity", value)
}

func TestLoad_NoFiles(t *testing.T) {
	rules, warnings, err := Load(afero.NewMemMapFs(), Config{})
	require.NoError(t, err)

	assert.Empty(t, warnings)
	assert.Nil(t, rules.Names)
	assert.Nil(t, rules.Parts)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(afero.NewMemMapFs(), Config{NameMapFile: "/missing.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read rule file")
}
