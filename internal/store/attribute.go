package store

// Attribute describes one editable field attached to every segment.
type Attribute struct {
	ID   string
	Name string
	Kind Kind
}

// Kind is the closed set of attribute kinds. The unexported method keeps
// the variant set inside this package.
type Kind interface {
	kindName() string
}

// Text is a free-form text attribute.
type Text struct {
	Default string
}

// Select is a single choice among fixed options.
type Select struct {
	Options []Option
	Default string // option id
}

// Option is one choice of a Select attribute.
type Option struct {
	ID    string
	Label string
}

// Unknown carries an attribute type this version cannot edit. It only
// appears when decoding data written by a newer tool.
type Unknown struct {
	Type string
}

func (Text) kindName() string { return KindText }
func (Select) kindName() string { return KindSelect }
func (u Unknown) kindName() string { return u.Type }

// Kind names used in project files and the SQLite schema.
const (
	KindText   = "text"
	KindSelect = "select"
)

// KindName returns the serialized name of k.
func KindName(k Kind) string {
	if k == nil {
		return ""
	}
	return k.kindName()
}

// DefaultValue returns the value shown when a segment has none for a.
func (a Attribute) DefaultValue() string {
	switch k := a.Kind.(type) {
	case Text:
		return k.Default
	case Select:
		return k.Default
	default:
		return ""
	}
}

// Accepts reports whether value is a legal value for a.
func (a Attribute) Accepts(value string) bool {
	switch k := a.Kind.(type) {
	case Text:
		return true
	case Select:
		for _, opt := range k.Options {
			if opt.ID == value {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// OptionIndex returns the position of id in a Select, or -1.
func (s Select) OptionIndex(id string) int {
	for i, opt := range s.Options {
		if opt.ID == id {
			return i
		}
	}
	return -1
}
