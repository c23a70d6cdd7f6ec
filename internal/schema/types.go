package schema

// RawTable is a table as reported by a live database, before any type
// mapping. It is the shape every introspector returns.
type RawTable struct {
	Name       string
	Comment    *string
	Columns    []RawColumn
	Indexes    []RawIndex
	PrimaryKey []string
}

// RawColumn represents a table column as reported by the engine
type RawColumn struct {
	Name         string
	Type         string // raw type token with modifiers, e.g. "tinyint(1) unsigned"
	Nullable     bool
	DefaultValue *string
	Extra        string // engine extra info, e.g. MySQL "auto_increment"
	Comment      *string
}

// RawIndex represents a database index, primary key indexes excluded
type RawIndex struct {
	Name     string
	Columns  []string
	IsUnique bool
}

// Column returns the raw column with the given name.
func (t *RawTable) Column(name string) (*RawColumn, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}
