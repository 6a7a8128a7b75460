package export_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablewright/encounter-api/internal/errors"
	"github.com/tablewright/encounter-api/internal/export"
)

func TestEncodeXML_EscapesEntities(t *testing.T) {
	input := buildInput()
	input.Encounter.Name = `Goblins & <Friends> "at" the 'mill'`

	data, err := export.EncodeXML(mustBuild(t, input))
	require.NoError(t, err)

	xml := string(data)
	assert.Contains(t, xml,
		"<name>Goblins &amp; &lt;Friends&gt; &quot;at&quot; the &apos;mill&apos;</name>")
	assert.NotContains(t, xml, "<Friends>")
}

func TestEncodeXML_Deterministic(t *testing.T) {
	env := mustBuild(t, buildInput())

	a, err := export.EncodeXML(env)
	require.NoError(t, err)
	b, err := export.EncodeXML(env)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, strings.Contains(string(a), "<encounterExport>"))
}

func TestXML_RoundTrip(t *testing.T) {
	input := buildInput()
	opts := &export.Options{
		Format:                 export.FormatXML,
		IncludeIDs:             true,
		IncludeCharacterSheets: true,
		IncludePrivateNotes:    true,
	}
	env, err := export.Build(input, opts)
	require.NoError(t, err)

	data, err := export.EncodeXML(env)
	require.NoError(t, err)

	tree, err := export.DecodeXML(data)
	require.NoError(t, err)
	require.NoError(t, export.ValidateTree(tree))

	got, err := export.FromTree(tree)
	require.NoError(t, err)

	expected, err := export.Build(input, opts)
	require.NoError(t, err)
	// scalar coercion reads the decimal "1.0" back as the number 1
	expected.Metadata.Version = "1"

	assert.Equal(t, expected, got)
}

func TestDecodeXML_ItemArrays(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<encounterExport>
  <tags>
    <item>forest</item>
    <item>goblins</item>
  </tags>
</encounterExport>`

	tree, err := export.DecodeXML([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []any{"forest", "goblins"}, tree["tags"])
}

func TestDecodeXML_RepeatedTagsCollapse(t *testing.T) {
	doc := `<encounterExport>
  <tag>forest</tag>
  <tag>goblins</tag>
  <name>Ambush</name>
</encounterExport>`

	tree, err := export.DecodeXML([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []any{"forest", "goblins"}, tree["tag"])
	assert.Equal(t, "Ambush", tree["name"])
}

func TestDecodeXML_ScalarCoercion(t *testing.T) {
	doc := `<encounterExport>
  <count>12</count>
  <weight>3.5</weight>
  <flag>true</flag>
  <off>false</off>
  <delta>-6</delta>
  <label>hello</label>
  <blank>   </blank>
</encounterExport>`

	tree, err := export.DecodeXML([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, int64(12), tree["count"])
	assert.Equal(t, 3.5, tree["weight"])
	assert.Equal(t, true, tree["flag"])
	assert.Equal(t, false, tree["off"])
	// a leading minus falls outside the integer pattern
	assert.Equal(t, "-6", tree["delta"])
	assert.Equal(t, "hello", tree["label"])
	assert.Equal(t, "", tree["blank"])
}

func TestDecodeXML_Malformed(t *testing.T) {
	_, err := export.DecodeXML([]byte("<encounterExport><name>oops"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidFormat, errors.GetCode(err))

	_, err = export.DecodeXML([]byte("not xml at all"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidFormat, errors.GetCode(err))
}

func TestDecodeXML_WrongRoot(t *testing.T) {
	_, err := export.DecodeXML([]byte("<somethingElse><name>x</name></somethingElse>"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidFormat, errors.GetCode(err))
	assert.Contains(t, err.Error(), "encounterExport")
}

func mustBuild(t *testing.T, input *export.BuildInput) *export.Envelope {
	t.Helper()
	env, err := export.Build(input, &export.Options{
		Format:     export.FormatXML,
		IncludeIDs: true,
	})
	require.NoError(t, err)
	return env
}
