package masters

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visio-restyle/internal/diagnostic"
	"visio-restyle/internal/vsdx"
	"visio-restyle/internal/vsdx/vsdxtest"
)

func buildInjector(t *testing.T, source, template vsdxtest.Doc) (*vsdx.Container, *Injector) {
	t.Helper()

	src := source.Container(t)

	srcCat, err := Build(src)
	require.NoError(t, err)

	tplCat, err := Build(template.Container(t))
	require.NoError(t, err)

	return src, NewInjector(src, srcCat, tplCat)
}

func TestInjectCopiesFromTemplate(t *testing.T) {
	source := vsdxtest.Doc{
		Masters: []vsdxtest.Master{{ID: "2", Name: "Process"}},
	}
	template := vsdxtest.Doc{
		Masters: []vsdxtest.Master{{ID: "1", Name: "ModernProcess"}},
	}

	src, inj := buildInjector(t, source, template)

	id, err := inj.Inject("ModernProcess")
	require.NoError(t, err)
	assert.Equal(t, "3", id)

	require.NoError(t, inj.Commit())

	// The definition part is a verbatim copy of the template's.
	tplPart, _ := template.Container(t).Part("visio/masters/master1.xml")
	gotPart, ok := src.Part("visio/masters/master3.xml")
	require.True(t, ok)
	assert.Equal(t, tplPart, gotPart)

	index, err := src.ParseXML(vsdx.PartMastersIndex)
	require.NoError(t, err)

	entries := index.FindAll("Master")
	require.Len(t, entries, 2)
	assert.Equal(t, "3", entries[1].AttrValue("ID"))
	assert.Equal(t, "ModernProcess", entries[1].AttrValue("NameU"))

	rels, err := src.ParseXML(vsdx.PartMastersRels)
	require.NoError(t, err)
	assert.Equal(t, "master3.xml", vsdx.RelTarget(rels, entries[1].Find("Rel").AttrValue("id")))

	ct, err := src.ParseXML(vsdx.PartContentTypes)
	require.NoError(t, err)
	assert.True(t, vsdx.HasContentTypeOverride(ct, "/visio/masters/master3.xml"))
}

func TestInjectIsIdempotent(t *testing.T) {
	source := vsdxtest.Doc{
		Masters: []vsdxtest.Master{{ID: "2", Name: "Process"}},
	}
	template := vsdxtest.Doc{
		Masters: []vsdxtest.Master{{ID: "1", Name: "ModernProcess"}},
	}

	src, inj := buildInjector(t, source, template)

	first, err := inj.Inject("ModernProcess")
	require.NoError(t, err)

	second, err := inj.Inject("ModernProcess")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, inj.Commit())

	index, err := src.ParseXML(vsdx.PartMastersIndex)
	require.NoError(t, err)

	copies := 0

	for _, m := range index.FindAll("Master") {
		if m.AttrValue("NameU") == "ModernProcess" {
			copies++
		}
	}

	assert.Equal(t, 1, copies)
}

func TestInjectReturnsExistingID(t *testing.T) {
	source := vsdxtest.Doc{
		Masters: []vsdxtest.Master{{ID: "2", Name: "Process"}},
	}
	template := vsdxtest.Doc{
		Masters: []vsdxtest.Master{{ID: "1", Name: "Process"}},
	}

	src, inj := buildInjector(t, source, template)

	before, _ := src.Part(vsdx.PartMastersIndex)

	id, err := inj.Inject("Process")
	require.NoError(t, err)
	assert.Equal(t, "2", id)

	require.NoError(t, inj.Commit())

	// Nothing was injected, so nothing was rewritten.
	after, _ := src.Part(vsdx.PartMastersIndex)
	assert.Equal(t, before, after)
}

func TestInjectedIDsStayAboveExisting(t *testing.T) {
	source := vsdxtest.Doc{
		Masters: []vsdxtest.Master{
			{ID: "2", Name: "Process"},
			{ID: "7", Name: "Decision"},
		},
	}
	template := vsdxtest.Doc{
		Masters: []vsdxtest.Master{
			{ID: "1", Name: "ModernProcess"},
			{ID: "2", Name: "ModernDecision"},
			{ID: "3", Name: "ModernDatabase"},
		},
	}

	_, inj := buildInjector(t, source, template)

	seen := map[string]bool{}

	for _, name := range []string{"ModernProcess", "ModernDecision", "ModernDatabase"} {
		id, err := inj.Inject(name)
		require.NoError(t, err)
		assert.False(t, seen[id], "id %s allocated twice", id)

		seen[id] = true
	}

	assert.Equal(t, map[string]bool{"8": true, "9": true, "10": true}, seen)
}

func TestInjectUnknownMasterFails(t *testing.T) {
	source := vsdxtest.Doc{
		Masters: []vsdxtest.Master{{ID: "1", Name: "Process"}},
	}
	template := vsdxtest.Doc{
		Masters: []vsdxtest.Master{{ID: "1", Name: "ModernProcess"}},
	}

	_, inj := buildInjector(t, source, template)

	_, err := inj.Inject("ModernCloud")
	require.Error(t, err)

	var notFound *diagnostic.MasterNotFoundError

	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ModernCloud", notFound.MasterName)
}

func TestInjectIntoMasterlessSource(t *testing.T) {
	source := vsdxtest.Doc{
		Pages: []vsdxtest.Page{{Name: "Page-1"}},
	}
	template := vsdxtest.Doc{
		Masters: []vsdxtest.Master{{ID: "1", Name: "ModernProcess"}},
	}

	src, inj := buildInjector(t, source, template)

	id, err := inj.Inject("ModernProcess")
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	require.NoError(t, inj.Commit())

	// Full scaffolding: index, its rels, content types, document rel.
	index, err := src.ParseXML(vsdx.PartMastersIndex)
	require.NoError(t, err)
	require.Len(t, index.FindAll("Master"), 1)

	rels, err := src.ParseXML(vsdx.PartMastersRels)
	require.NoError(t, err)
	assert.Equal(t, "master1.xml", vsdx.RelTarget(rels, "rId1"))

	ct, err := src.ParseXML(vsdx.PartContentTypes)
	require.NoError(t, err)
	assert.True(t, vsdx.HasContentTypeOverride(ct, "/"+vsdx.PartMastersIndex))
	assert.True(t, vsdx.HasContentTypeOverride(ct, "/visio/masters/master1.xml"))

	docRels, err := src.ParseXML(vsdx.PartDocumentRels)
	require.NoError(t, err)

	found := false

	for _, rel := range docRels.FindAll("Relationship") {
		if rel.AttrValue("Type") == vsdx.RelTypeMasters {
			found = true

			assert.Equal(t, "masters/masters.xml", rel.AttrValue("Target"))
		}
	}

	assert.True(t, found, "document rels must reference the new master index")
}

func TestInjectRegeneratesUniqueID(t *testing.T) {
	tplUID := "{AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE}"
	source := vsdxtest.Doc{
		Masters: []vsdxtest.Master{{ID: "1", Name: "Process"}},
	}
	template := vsdxtest.Doc{
		Masters: []vsdxtest.Master{{ID: "1", Name: "ModernProcess", UniqueID: tplUID}},
	}

	src, inj := buildInjector(t, source, template)

	_, err := inj.Inject("ModernProcess")
	require.NoError(t, err)
	require.NoError(t, inj.Commit())

	index, err := src.ParseXML(vsdx.PartMastersIndex)
	require.NoError(t, err)

	entries := index.FindAll("Master")
	require.Len(t, entries, 2)

	uid := entries[1].AttrValue("UniqueID")
	assert.NotEqual(t, tplUID, uid)
	assert.Regexp(t, regexp.MustCompile(`^\{[0-9A-F]{8}(-[0-9A-F]{4}){3}-[0-9A-F]{12}\}$`), uid)
}

func TestCommittedContainerRebuildsCleanly(t *testing.T) {
	source := vsdxtest.Doc{
		Masters: []vsdxtest.Master{{ID: "2", Name: "Process"}},
	}
	template := vsdxtest.Doc{
		Masters: []vsdxtest.Master{
			{ID: "1", Name: "ModernProcess"},
			{ID: "2", Name: "ModernDecision"},
		},
	}

	src, inj := buildInjector(t, source, template)

	for _, name := range []string{"ModernProcess", "ModernDecision"} {
		_, err := inj.Inject(name)
		require.NoError(t, err)
	}

	require.NoError(t, inj.Commit())

	rebuilt, err := Build(src)
	require.NoError(t, err)

	assert.Equal(t, 3, rebuilt.Len())
	assert.True(t, rebuilt.Has("Process"))
	assert.True(t, rebuilt.Has("ModernProcess"))
	assert.True(t, rebuilt.Has("ModernDecision"))
	assert.Equal(t, 4, rebuilt.MaxID())
}
