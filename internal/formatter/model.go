package formatter

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/tordrt/schemabridge/internal/annotation"
	"github.com/tordrt/schemabridge/internal/naming"
	"github.com/tordrt/schemabridge/internal/schema"
)

const (
	civilPkg = "github.com/golang-sql/civil"
	uuidPkg  = "github.com/google/uuid"
)

// EmissionOptions are the model emitter toggles.
type EmissionOptions struct {
	// Package is the package clause of the generated file. Defaults to models.
	Package string
	// Serialization adds json tags.
	Serialization bool
	// CRUD adds table metadata methods.
	CRUD bool
}

// ModelFormatter renders a table as an annotated Go struct.
type ModelFormatter struct{}

// NewModelFormatter creates a new model formatter.
func NewModelFormatter() *ModelFormatter {
	return &ModelFormatter{}
}

// Format renders spec as a Go source file. The output depends only on spec
// and opts.
func (m *ModelFormatter) Format(spec schema.TableSpec, opts EmissionOptions) (string, error) {
	pkg := opts.Package
	if pkg == "" {
		pkg = "models"
	}
	typeName := naming.TypeName(spec.Name)
	pk, hasPK := spec.PrimaryKey()
	sd, hasSD := spec.SoftDeleteColumn()

	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by schemabridge. DO NOT EDIT.")

	f.Commentf("%s is a row of table %s.", typeName, spec.Name)
	if spec.HasComment {
		f.Comment(spec.Comment)
	}
	f.Comment("//")
	if hasPK {
		f.Commentf("Primary key: %s", pk)
	}
	if hasSD {
		f.Commentf("Soft delete: %s", sd)
	}
	f.Commentf("Columns: %d", len(spec.Columns))
	f.Comment("//")
	f.Comment(annotation.Directive{
		Name:       spec.Name,
		PrimaryKey: pk,
		SoftDelete: sd,
		Comment:    spec.Comment,
		HasComment: spec.HasComment,
	}.String())

	seen := map[string]bool{}
	if opts.CRUD {
		for _, name := range []string{"TableName", "PrimaryKey", "SoftDeleteColumn", "Columns"} {
			seen[name] = true
		}
	}

	fields := make([]jen.Code, 0, 2*len(spec.Columns))
	for _, c := range spec.Columns {
		fields = append(fields,
			jen.Comment(fieldDoc(c)),
			jen.Id(naming.Unique(naming.Pascal(c.Name), seen)).Add(goType(c)).Tag(fieldTags(c, opts)),
		)
	}
	f.Type().Id(typeName).Struct(fields...)

	if opts.CRUD {
		addMetaMethods(f, typeName, spec, pk, sd)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render model for %s: %w", spec.Name, err)
	}
	return buf.String(), nil
}

func fieldDoc(c schema.ColumnSpec) string {
	raw := c.RawType
	if raw == "" {
		raw = c.Type.String()
	}
	doc := fmt.Sprintf("%s (%s)", c.Name, raw)
	if c.PrimaryKey {
		doc += " | primary key"
	}
	if c.Nullable {
		doc += " | nullable"
	} else {
		doc += " | not null"
	}
	if c.HasDefault {
		doc += " | default: " + c.Default
	}
	return doc
}

func goType(c schema.ColumnSpec) *jen.Statement {
	var t *jen.Statement
	switch c.Type {
	case schema.Int16:
		t = jen.Int16()
	case schema.Int32:
		t = jen.Int32()
	case schema.Int64:
		t = jen.Int64()
	case schema.Bool:
		t = jen.Bool()
	case schema.Float64:
		t = jen.Float64()
	case schema.Date:
		t = jen.Qual(civilPkg, "Date")
	case schema.DateTimeNaive:
		t = jen.Qual(civilPkg, "DateTime")
	case schema.DateTimeWithZone:
		t = jen.Qual("time", "Time")
	case schema.Binary:
		return jen.Index().Byte()
	case schema.Json:
		return jen.Qual("encoding/json", "RawMessage")
	case schema.Uuid:
		t = jen.Qual(uuidPkg, "UUID")
	default:
		t = jen.String()
	}
	if c.Nullable {
		return jen.Op("*").Add(t)
	}
	return t
}

func fieldTags(c schema.ColumnSpec, opts EmissionOptions) map[string]string {
	ct := annotation.ColumnTag{
		PrimaryKey:    c.PrimaryKey,
		AutoIncrement: c.AutoIncrement,
		NotNull:       !c.Nullable && !c.PrimaryKey,
		HasDefault:    c.HasDefault,
		Default:       c.Default,
		Length:        c.Length,
		Unique:        c.Unique,
		Index:         c.Indexed && !c.Unique,
		IndexName:     c.IndexName,
		SoftDelete:    c.SoftDelete,
		HasComment:    c.HasComment,
		Comment:       c.Comment,
	}
	for _, m := range c.Composite {
		ct.Composite = append(ct.Composite, annotation.CompositeRef{
			Group:       m.Group,
			Position:    m.Position,
			HasPosition: true,
			Unique:      m.Unique,
		})
	}

	tags := map[string]string{"db": c.Name}
	if s := ct.String(); s != "" {
		tags["column"] = s
	}
	if opts.Serialization {
		tags["json"] = c.Name + ",omitempty"
	}
	return tags
}

func addMetaMethods(f *jen.File, typeName string, spec schema.TableSpec, pk, sd string) {
	recv := jen.Id(typeName)

	f.Line()
	f.Comment("TableName returns the table name.")
	f.Func().Params(recv.Clone()).Id("TableName").Params().String().Block(
		jen.Return(jen.Lit(spec.Name)),
	)

	f.Line()
	f.Comment("PrimaryKey returns the primary key column, or an empty string.")
	f.Func().Params(recv.Clone()).Id("PrimaryKey").Params().String().Block(
		jen.Return(jen.Lit(pk)),
	)

	f.Line()
	f.Comment("SoftDeleteColumn returns the soft-delete column, or an empty string.")
	f.Func().Params(recv.Clone()).Id("SoftDeleteColumn").Params().String().Block(
		jen.Return(jen.Lit(sd)),
	)

	cols := make([]jen.Code, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = jen.Lit(c.Name)
	}
	f.Line()
	f.Comment("Columns returns the column names in declaration order.")
	f.Func().Params(recv.Clone()).Id("Columns").Params().Index().String().Block(
		jen.Return(jen.Index().String().Values(cols...)),
	)
}
