package vsdx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pagePartXML = `<?xml version="1.0" encoding="UTF-8"?>
<PageContents xmlns="http://schemas.microsoft.com/office/visio/2012/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <Shapes>
    <Shape ID="1" Type="Shape" Master="2">
      <Cell N="PinX" V="4.25"/>
      <Cell N="PinY" V="8.5"/>
      <Section N="Fill">
        <Row IX="0"><Cell N="FillForegnd" V="#FF0000"/></Row>
      </Section>
      <Text><cp IX="0"/>Review &amp; sign</Text>
    </Shape>
  </Shapes>
  <Connects>
    <Connect FromSheet="3" FromCell="BeginX" ToSheet="1"/>
  </Connects>
</PageContents>`

func TestParsePart(t *testing.T) {
	root, err := ParsePart([]byte(pagePartXML))
	require.NoError(t, err)

	assert.Equal(t, "PageContents", root.Name.Local)
	assert.Equal(t, NSMain, root.Name.Space)

	shapes := root.Find("Shapes")
	require.NotNil(t, shapes)
	require.Len(t, shapes.FindAll("Shape"), 1)

	shape := shapes.Find("Shape")
	assert.Equal(t, "1", shape.AttrValue("ID"))
	assert.Equal(t, "2", shape.AttrValue("Master"))

	text := shape.Find("Text")
	require.NotNil(t, text)
	assert.Equal(t, "Review & sign", text.InnerText())

	// Mixed content keeps the marker element ahead of the text run.
	require.NotEmpty(t, text.Children)
	assert.Equal(t, "cp", text.Children[0].Name.Local)

	connect := root.Find("Connects").Find("Connect")
	require.NotNil(t, connect)
	assert.Equal(t, "BeginX", connect.AttrValue("FromCell"))
}

func TestParsePartErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "truncated", input: "<Shapes><Shape"},
		{name: "mismatched", input: "<Shapes></Shape>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePart([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	root, err := ParsePart([]byte(pagePartXML))
	require.NoError(t, err)

	first, err := root.Marshal()
	require.NoError(t, err)

	reparsed, err := ParsePart(first)
	require.NoError(t, err)

	second, err := reparsed.Marshal()
	require.NoError(t, err)

	// Serialization is a fixed point after one pass.
	assert.Equal(t, string(first), string(second))

	// Structure, prefixes, and values survive.
	assert.Contains(t, string(first), `<Cell N="PinX" V="4.25"/>`)
	assert.Contains(t, string(first), `xmlns:r="`+NSDocRels+`"`)
	assert.Contains(t, string(first), `<cp IX="0"/>Review &amp; sign`)
	assert.Contains(t, string(first), `</PageContents>`)
}

func TestMarshalPreservesRelPrefix(t *testing.T) {
	const mastersXML = `<Masters xmlns="` + NSMain + `" xmlns:r="` + NSDocRels + `">` +
		`<Master ID="2" NameU="Process"><Rel r:id="rId1"/></Master></Masters>`

	root, err := ParsePart([]byte(mastersXML))
	require.NoError(t, err)

	rel := root.Find("Master").Find("Rel")
	require.NotNil(t, rel)
	assert.Equal(t, "rId1", rel.AttrValue("id"))

	out, err := root.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), `<Rel r:id="rId1"/>`)
}

func TestMarshalEscaping(t *testing.T) {
	root := NewElement("", "Text")
	root.SetAttr("Label", `a "quoted" <value>`)
	root.AppendChild(&Node{Text: "1 < 2 & 3 > 2"})

	out, err := root.Marshal()
	require.NoError(t, err)

	assert.Contains(t, string(out), `Label="a &quot;quoted&quot; &lt;value&gt;"`)
	assert.Contains(t, string(out), `>1 &lt; 2 &amp; 3 &gt; 2</Text>`)
}

func TestMarshalUnboundNamespace(t *testing.T) {
	root := NewElement("urn:nowhere", "Thing")

	_, err := root.Marshal()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "urn:nowhere")
}

func TestSetAttrKeepsNamespace(t *testing.T) {
	const relXML = `<Master xmlns="` + NSMain + `" xmlns:r="` + NSDocRels + `"><Rel r:id="rId1"/></Master>`

	root, err := ParsePart([]byte(relXML))
	require.NoError(t, err)

	rel := root.Find("Rel")
	rel.SetAttr("id", "rId9")

	out, err := root.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), `<Rel r:id="rId9"/>`)
}

func TestRemoveChildren(t *testing.T) {
	root, err := ParsePart([]byte(pagePartXML))
	require.NoError(t, err)

	shape := root.Find("Shapes").Find("Shape")
	removed := shape.RemoveChildren(func(n *Node) bool {
		return n.Name.Local == "Section"
	})

	assert.Equal(t, 1, removed)
	assert.Nil(t, shape.Find("Section"))
	assert.NotNil(t, shape.Find("Text"))

	// Removing again is a no-op.
	assert.Equal(t, 0, shape.RemoveChildren(func(n *Node) bool {
		return n.Name.Local == "Section"
	}))
}

func TestRemoveAttr(t *testing.T) {
	root, err := ParsePart([]byte(pagePartXML))
	require.NoError(t, err)

	shape := root.Find("Shapes").Find("Shape")

	assert.True(t, shape.RemoveAttr("Type"))
	assert.False(t, shape.RemoveAttr("Type"))

	_, ok := shape.Attr("Type")
	assert.False(t, ok)
}

func TestClone(t *testing.T) {
	root, err := ParsePart([]byte(pagePartXML))
	require.NoError(t, err)

	cp := root.Clone()
	cp.Find("Shapes").Find("Shape").SetAttr("ID", "99")

	assert.Equal(t, "1", root.Find("Shapes").Find("Shape").AttrValue("ID"))
	assert.Equal(t, "99", cp.Find("Shapes").Find("Shape").AttrValue("ID"))
}
