package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Genero values used by the registry and by annotated features.
const (
	GeneroMasculino = "M"
	GeneroFemenino  = "F"
	GeneroOtro      = "otro"
)

// Calle is one registry row: a street name and the gender of the person it honors.
type Calle struct {
	Distrito  string            `bson:"distrito" json:"distrito"`   // district / locality label
	Nombre    string            `bson:"nombre" json:"nombre"`       // street name as written in the registry
	Genero    string            `bson:"genero" json:"genero"`       // "M", "F" or anything else
	Categoria string            `bson:"categoria" json:"categoria"` // free-form category
	Municipio string            `bson:"municipio" json:"municipio"` // municipality, compared accent-folded
	Extra     map[string]string `bson:",inline" json:"-"`           // any other column of the source file
}

var calleColumns = []string{"distrito", "nombre", "genero", "categoria", "municipio"}

// UnmarshalJSON accepts rows with arbitrary extra columns. Non-string values
// are kept as their JSON literal; null becomes "".
func (c *Calle) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	row := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, row); err != nil {
		return err
	}

	*c = Calle{}
	for pair := row.Oldest(); pair != nil; pair = pair.Next() {
		v := cellString(pair.Value)
		switch pair.Key {
		case "distrito":
			c.Distrito = v
		case "nombre":
			c.Nombre = v
		case "genero":
			c.Genero = v
		case "categoria":
			c.Categoria = v
		case "municipio":
			c.Municipio = v
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]string)
			}
			c.Extra[pair.Key] = v
		}
	}
	return nil
}

// MarshalJSON writes the known columns first, then extras sorted by key.
func (c Calle) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Record())
}

// Record returns the row as an ordered map, known columns first.
func (c Calle) Record() *orderedmap.OrderedMap[string, any] {
	om := orderedmap.New[string, any](len(calleColumns) + len(c.Extra))
	om.Set("distrito", c.Distrito)
	om.Set("nombre", c.Nombre)
	om.Set("genero", c.Genero)
	om.Set("categoria", c.Categoria)
	om.Set("municipio", c.Municipio)

	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		om.Set(k, c.Extra[k])
	}
	return om
}

// IsFemenino reports whether the registry marks the honoree as a woman.
func (c Calle) IsFemenino() bool { return c.Genero == GeneroFemenino }

func isNull(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}

func cellString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// NormalizedCalle is a registry row prepared for matching.
type NormalizedCalle struct {
	Calle
	NombreNorm string // normalized matching key
	Seq        int    // position in the source registry
}
