package rebuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visio-restyle/internal/vsdx"
)

const styledShapeXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<PageContents xmlns="http://schemas.microsoft.com/office/visio/2012/main">
  <Shapes>
    <Shape ID="1" Type="Shape" Master="2" LineStyle="3" FillStyle="3" TextStyle="3">
      <Cell N="PinX" V="2"/>
      <Cell N="PinY" V="3"/>
      <Cell N="Width" V="1.5"/>
      <Cell N="Height" V="0.75"/>
      <Cell N="FillForegnd" V="#FF0000"/>
      <Cell N="LineWeight" V="0.01"/>
      <Cell N="QuickStyleFillColor" V="100"/>
      <Section N="Fill">
        <Cell N="FillForegnd" V="#FF0000"/>
      </Section>
      <Section N="Line">
        <Cell N="LineColor" V="#00FF00"/>
      </Section>
      <Section N="Geometry" IX="0">
        <Row T="MoveTo" IX="1">
          <Cell N="X" V="0"/>
          <Cell N="Y" V="0"/>
        </Row>
      </Section>
      <Text>Start</Text>
    </Shape>
  </Shapes>
</PageContents>`

func parseShape(t *testing.T, doc string) (root, shape *vsdx.Node) {
	t.Helper()

	root, err := vsdx.ParsePart([]byte(doc))
	require.NoError(t, err)

	shape = root.Find("Shapes").Find("Shape")
	require.NotNil(t, shape)

	return root, shape
}

func TestStripStylesRemovesStylePayload(t *testing.T) {
	_, shape := parseShape(t, styledShapeXML)

	StripStyles(shape)

	sections := shape.FindAll("Section")
	require.Len(t, sections, 1)
	assert.Equal(t, "Geometry", sections[0].AttrValue("N"))

	cells := map[string]bool{}
	for _, c := range shape.FindAll("Cell") {
		cells[c.AttrValue("N")] = true
	}

	assert.True(t, cells["PinX"])
	assert.True(t, cells["PinY"])
	assert.True(t, cells["Width"])
	assert.True(t, cells["Height"])
	assert.False(t, cells["FillForegnd"])
	assert.False(t, cells["LineWeight"])
	assert.False(t, cells["QuickStyleFillColor"])

	_, hasLineStyle := shape.Attr("LineStyle")
	_, hasFillStyle := shape.Attr("FillStyle")
	_, hasTextStyle := shape.Attr("TextStyle")
	assert.False(t, hasLineStyle)
	assert.False(t, hasFillStyle)
	assert.False(t, hasTextStyle)

	// Identity and text survive; only remap touches the master reference.
	assert.Equal(t, "1", shape.AttrValue("ID"))
	assert.Equal(t, "2", shape.AttrValue("Master"))
	require.NotNil(t, shape.Find("Text"))
	assert.Equal(t, "Start", shape.Find("Text").InnerText())
}

func TestStripStylesIsIdempotent(t *testing.T) {
	root, shape := parseShape(t, styledShapeXML)

	StripStyles(shape)

	once, err := root.Marshal()
	require.NoError(t, err)

	StripStyles(shape)

	twice, err := root.Marshal()
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
}

func TestStripStylesRecursesIntoGroups(t *testing.T) {
	groupXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<PageContents xmlns="http://schemas.microsoft.com/office/visio/2012/main">
  <Shapes>
    <Shape ID="5" Type="Group">
      <Section N="Fill">
        <Cell N="FillForegnd" V="#0000FF"/>
      </Section>
      <Shapes>
        <Shape ID="6" FillStyle="3">
          <Cell N="LineColor" V="#00FF00"/>
          <Section N="Line">
            <Cell N="LineWeight" V="0.02"/>
          </Section>
        </Shape>
      </Shapes>
    </Shape>
  </Shapes>
</PageContents>`

	_, group := parseShape(t, groupXML)

	StripStyles(group)

	assert.Empty(t, group.FindAll("Section"))

	member := group.Find("Shapes").Find("Shape")
	require.NotNil(t, member)
	assert.Empty(t, member.FindAll("Section"))
	assert.Empty(t, member.FindAll("Cell"))

	_, hasFillStyle := member.Attr("FillStyle")
	assert.False(t, hasFillStyle)
}
