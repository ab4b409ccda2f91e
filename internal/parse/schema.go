package parse

// FieldKind is the JSON shape expected for a response field
type FieldKind int

const (
	KindString FieldKind = iota // "field": "text"
	KindList                    // "field": ["a", "b"]
	KindNumber                  // "field": 0.8
)

// Field describes one key the LLM is asked to return
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
}

// Schema is the ordered set of fields recovered from a response
type Schema []Field

// Required returns the names of the required fields
func (s Schema) Required() []string {
	var names []string
	for _, f := range s {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// ClaimSchema is the shape of a claim adjudication response
var ClaimSchema = Schema{
	{Name: "verdict", Kind: KindString, Required: true},
	{Name: "evidence", Kind: KindList, Required: true},
	{Name: "reasoning", Kind: KindString, Required: true},
}

// EntitySchema is the shape of an entity adjudication response.
// The self-reported confidence is optional.
var EntitySchema = Schema{
	{Name: "verdict", Kind: KindString, Required: true},
	{Name: "confidence", Kind: KindNumber, Required: false},
	{Name: "reasoning", Kind: KindString, Required: true},
}
