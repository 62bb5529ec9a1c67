package vsdx_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visio-restyle/internal/diagnostic"
	"visio-restyle/internal/vsdx"
	"visio-restyle/internal/vsdx/vsdxtest"
)

func sampleDoc() vsdxtest.Doc {
	return vsdxtest.Doc{
		Masters: []vsdxtest.Master{
			{ID: "2", Name: "Process"},
		},
		Pages: []vsdxtest.Page{
			{
				Name: "Page-1",
				Shapes: []vsdxtest.Shape{
					{ID: "1", MasterID: "2", Text: "Start", PinX: "4.25", PinY: "8.5", Width: "1.5", Height: "0.75"},
				},
			},
		},
	}
}

func TestOpenValidContainer(t *testing.T) {
	path := sampleDoc().WriteFile(t, "in.vsdx")

	c, err := vsdx.Open(path)
	require.NoError(t, err)

	assert.Equal(t, path, c.Path())
	assert.True(t, c.Has(vsdx.PartPagesIndex))
	assert.True(t, c.Has(vsdx.PartMastersIndex))

	data, ok := c.Part("visio/pages/page1.xml")
	require.True(t, ok)
	assert.Contains(t, string(data), `<Shape ID="1"`)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := vsdx.Open(filepath.Join(t.TempDir(), "absent.vsdx"))

	var corrupt *diagnostic.CorruptContainerError

	require.ErrorAs(t, err, &corrupt)
}

func TestFromBytesNotZip(t *testing.T) {
	_, err := vsdx.FromBytes("junk.vsdx", []byte("this is not an archive"))

	var corrupt *diagnostic.CorruptContainerError

	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Reason, "not a zip archive")
}

func TestFromBytesLegacyOLE(t *testing.T) {
	data := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 64)...)

	_, err := vsdx.FromBytes("old.vsd", data)

	var unsupported *diagnostic.UnsupportedFormatError

	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, unsupported.Detected, "legacy .vsd")
}

func TestFromBytesMissingContentTypes(t *testing.T) {
	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)
	f, err := zw.Create("visio/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<VisioDocument/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = vsdx.FromBytes("in.vsdx", buf.Bytes())

	var corrupt *diagnostic.CorruptContainerError

	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Reason, vsdx.PartContentTypes)
}

func TestFromBytesNonVisioPackage(t *testing.T) {
	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)
	f, err := zw.Create(vsdx.PartContentTypes)
	require.NoError(t, err)
	_, err = f.Write([]byte(`<Types xmlns="` + vsdx.NSContentTypes + `"/>`))
	require.NoError(t, err)
	f, err = zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<document/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = vsdx.FromBytes("in.docx", buf.Bytes())

	var unsupported *diagnostic.UnsupportedFormatError

	require.ErrorAs(t, err, &unsupported)
}

func TestFromBytesDuplicatePart(t *testing.T) {
	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for i := 0; i < 2; i++ {
		f, err := zw.Create(vsdx.PartContentTypes)
		require.NoError(t, err)
		_, err = f.Write([]byte("<Types/>"))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())

	_, err := vsdx.FromBytes("in.vsdx", buf.Bytes())

	var corrupt *diagnostic.CorruptContainerError

	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Reason, "duplicate part")
}

func TestSaveRoundTripsParts(t *testing.T) {
	src := sampleDoc().Container(t)
	out := filepath.Join(t.TempDir(), "out.vsdx")

	require.NoError(t, src.Save(out))

	got, err := vsdx.Open(out)
	require.NoError(t, err)

	require.Equal(t, src.Parts(), got.Parts())

	for _, name := range src.Parts() {
		want, _ := src.Part(name)
		have, ok := got.Part(name)

		require.True(t, ok, "part %s missing after save", name)
		assert.Equal(t, want, have, "part %s not byte-identical", name)
	}
}

func TestSaveReplacedPartOnly(t *testing.T) {
	src := sampleDoc().Container(t)
	original, _ := src.Part("visio/pages/page1.xml")

	src.SetPart("visio/pages/page1.xml", []byte("<PageContents/>"))

	out := filepath.Join(t.TempDir(), "out.vsdx")
	require.NoError(t, src.Save(out))

	got, err := vsdx.Open(out)
	require.NoError(t, err)

	replaced, _ := got.Part("visio/pages/page1.xml")
	assert.Equal(t, []byte("<PageContents/>"), replaced)
	assert.NotEqual(t, original, replaced)

	untouched, _ := got.Part(vsdx.PartMastersIndex)
	want, _ := src.Part(vsdx.PartMastersIndex)
	assert.Equal(t, want, untouched)
}

func TestSetPartNewAppendsToOrder(t *testing.T) {
	c := sampleDoc().Container(t)

	before := c.Parts()
	c.SetPart("visio/masters/master9.xml", []byte("<MasterContents/>"))
	after := c.Parts()

	require.Len(t, after, len(before)+1)
	assert.Equal(t, "visio/masters/master9.xml", after[len(after)-1])
}

func TestSaveFailureLeavesNoOutput(t *testing.T) {
	c := sampleDoc().Container(t)

	dir := filepath.Join(t.TempDir(), "missing")
	err := c.Save(filepath.Join(dir, "out.vsdx"))
	require.Error(t, err)

	_, statErr := os.Stat(dir)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestParseXMLMissingPart(t *testing.T) {
	c := sampleDoc().Container(t)

	_, err := c.ParseXML("visio/pages/page9.xml")

	var corrupt *diagnostic.CorruptContainerError

	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Reason, "missing part")
}

func TestParseXMLMalformedPart(t *testing.T) {
	c := sampleDoc().Container(t)
	c.SetPart("visio/pages/page1.xml", []byte("<PageContents><Shapes></PageContents>"))

	_, err := c.ParseXML("visio/pages/page1.xml")

	var corrupt *diagnostic.CorruptContainerError

	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Reason, "malformed part")
}

func TestSetPartXML(t *testing.T) {
	c := sampleDoc().Container(t)

	root, err := c.ParseXML(vsdx.PartMastersIndex)
	require.NoError(t, err)

	root.Find("Master").SetAttr("NameU", "Renamed")
	require.NoError(t, c.SetPartXML(vsdx.PartMastersIndex, root))

	reparsed, err := c.ParseXML(vsdx.PartMastersIndex)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", reparsed.Find("Master").AttrValue("NameU"))
}
