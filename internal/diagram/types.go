package diagram

// Diagram is the simplified view of one container, materialized fresh on
// every extraction. It is never partially valid: extraction either returns a
// fully parsed Diagram or fails.
type Diagram struct {
	Filename string `json:"filename"`
	Pages    []Page `json:"pages"`
}

// Page groups the shapes and connectors of one drawing page. Shape and
// connector identifiers are unique within their page only.
type Page struct {
	Name       string      `json:"name"`
	Shapes     []Shape     `json:"shapes"`
	Connectors []Connector `json:"connectors"`
}

// Shape is the simplified view of one shape record. Position and size carry
// the parsed cell values; the raw cells stay untouched through remapping.
type Shape struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	MasterName *string  `json:"master_name"`
	Position   Position `json:"position"`
	Size       Size     `json:"size"`
}

// Connector is the simplified view of one connector record. A nil endpoint
// means the connector is unattached on that end.
type Connector struct {
	ID        string  `json:"id"`
	FromShape *string `json:"from_shape"`
	ToShape   *string `json:"to_shape"`
}

// Position is a shape's pin location on the page, in drawing units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a shape's extent, in drawing units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Master describes one entry of a master catalog listing.
type Master struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

// MastersFile is the masters listing artifact produced by master-only
// extraction.
type MastersFile struct {
	Masters []Master `json:"masters"`
}

// Mapping is the externally supplied table from page-scoped shape id to
// target master name. How it was produced is not the pipeline's concern.
type Mapping map[string]string

// ShapeByID returns the page's shape with the given id, or nil.
func (p *Page) ShapeByID(id string) *Shape {
	for i := range p.Shapes {
		if p.Shapes[i].ID == id {
			return &p.Shapes[i]
		}
	}

	return nil
}

// ConnectorByID returns the page's connector with the given id, or nil.
func (p *Page) ConnectorByID(id string) *Connector {
	for i := range p.Connectors {
		if p.Connectors[i].ID == id {
			return &p.Connectors[i]
		}
	}

	return nil
}
