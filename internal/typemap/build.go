package typemap

import (
	"errors"

	"github.com/tordrt/schemabridge/internal/diag"
	"github.com/tordrt/schemabridge/internal/schema"
	"github.com/tordrt/schemabridge/internal/softdelete"
)

// BuildOptions configures BuildTableSpec.
type BuildOptions struct {
	SoftDelete softdelete.Options
}

// BuildTableSpec maps an introspected table onto a TableSpec. The returned
// diagnostics carry the table name; an error-severity diagnostic means the
// spec should not be emitted.
func BuildTableSpec(d schema.Dialect, raw schema.RawTable, opts BuildOptions) (schema.TableSpec, diag.List) {
	var diags diag.List
	spec := schema.TableSpec{Name: raw.Name}
	if raw.Comment != nil && *raw.Comment != "" {
		spec.HasComment = true
		spec.Comment = *raw.Comment
	}

	pk := ""
	if len(raw.PrimaryKey) > 0 {
		pk = raw.PrimaryKey[0]
	}
	if len(raw.PrimaryKey) > 1 {
		diags.Warnf(diag.InvalidSchema, raw.Name, "",
			"composite primary key %v; %q kept as primary key, all columns kept as unique group %q",
			raw.PrimaryKey, pk, raw.Name+"_pkey")
	}

	spec.Columns = make([]schema.ColumnSpec, 0, len(raw.Columns))
	for _, rc := range raw.Columns {
		m := Forward(d, RawType{Token: rc.Type, Extra: rc.Extra, Default: rc.DefaultValue})
		for _, md := range m.Diagnostics {
			md.Table, md.Column = raw.Name, rc.Name
			diags.Append(md)
		}

		c := schema.ColumnSpec{
			Name:          rc.Name,
			Type:          m.Type,
			Length:        m.Length,
			AutoIncrement: m.AutoIncrement,
			PrimaryKey:    rc.Name == pk,
			RawType:       rc.Type,
		}
		c.Nullable = rc.Nullable && !c.PrimaryKey
		c.Default, c.HasDefault = NormalizeDefault(d, m.Type, rc.DefaultValue, m.AutoIncrement)
		if rc.Comment != nil && *rc.Comment != "" {
			c.HasComment = true
			c.Comment = *rc.Comment
		}
		spec.Columns = append(spec.Columns, c)
	}

	if len(raw.PrimaryKey) > 1 {
		for pos, name := range raw.PrimaryKey {
			if i := columnIndex(spec.Columns, name); i >= 0 {
				spec.Columns[i].Composite = append(spec.Columns[i].Composite,
					schema.CompositeMembership{Group: raw.Name + "_pkey", Position: pos, Unique: true})
			}
		}
	}

	for _, idx := range raw.Indexes {
		applyIndex(&spec, idx, &diags)
	}

	cols, err := softdelete.Apply(spec.Columns, opts.SoftDelete)
	if err != nil {
		var dg diag.Diagnostic
		if errors.As(err, &dg) {
			dg.Table = raw.Name
			diags.Append(dg)
		} else {
			diags.Errorf(diag.InvalidSchema, raw.Name, "", "%v", err)
		}
	}
	spec.Columns = cols

	diags.Append(schema.Validate(spec)...)
	return spec, diags.ForTable(raw.Name)
}

func applyIndex(spec *schema.TableSpec, idx schema.RawIndex, diags *diag.List) {
	if len(idx.Columns) == 1 {
		i := columnIndex(spec.Columns, idx.Columns[0])
		if i < 0 {
			diags.Warnf(diag.InvalidSchema, spec.Name, idx.Columns[0], "index %q names an unknown column", idx.Name)
			return
		}
		c := &spec.Columns[i]
		switch {
		case idx.IsUnique:
			c.Unique = true
			c.Indexed = false
			c.IndexName = ""
			if idx.Name != schema.DefaultUniqueName(spec.Name, c.Name) {
				c.IndexName = idx.Name
			}
		case c.Unique || c.Indexed:
			// A second index on the same column adds nothing the DDL can express.
		default:
			c.Indexed = true
			if idx.Name != schema.DefaultIndexName(spec.Name, c.Name) {
				c.IndexName = idx.Name
			}
		}
		return
	}

	for pos, name := range idx.Columns {
		i := columnIndex(spec.Columns, name)
		if i < 0 {
			diags.Warnf(diag.InvalidSchema, spec.Name, name, "index %q names an unknown column", idx.Name)
			continue
		}
		spec.Columns[i].Composite = append(spec.Columns[i].Composite,
			schema.CompositeMembership{Group: idx.Name, Position: pos, Unique: idx.IsUnique})
	}
}

func columnIndex(cols []schema.ColumnSpec, name string) int {
	for i, c := range cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}
