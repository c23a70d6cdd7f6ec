// Package annotation recovers table definitions from annotated Go structs.
//
// A model is a struct whose doc comment carries a //schemabridge:table
// directive. Each field becomes a column; its db tag names the column and its
// column tag carries the constraints:
//
//	//schemabridge:table name=users pk=id comment="user accounts"
//	type User struct {
//		ID    int64   `db:"id" column:"primary_key;auto_increment"`
//		Email string  `db:"email" column:"not_null;length:255;unique"`
//		Name  *string `db:"name" column:"length:64;combine_index:idx_name:0"`
//	}
package annotation

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"

	"github.com/tordrt/schemabridge/internal/diag"
	"github.com/tordrt/schemabridge/internal/naming"
	"github.com/tordrt/schemabridge/internal/schema"
	"github.com/tordrt/schemabridge/internal/softdelete"
)

// ErrNoModels is returned when a source unit declares no annotated struct.
var ErrNoModels = errors.New("no annotated models found")

// Options configures parsing.
type Options struct {
	SoftDelete softdelete.Options
}

// Model is one parsed struct. Diagnostics holds every problem found for it;
// if any is error-severity, Spec must not be emitted.
type Model struct {
	TypeName    string
	Spec        schema.TableSpec
	Diagnostics diag.List
}

// ParseFile reads and parses a Go source file.
func ParseFile(path string, opts Options) ([]Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseSource(path, src, opts)
}

// ParseSource parses every annotated struct in src, in declaration order.
// A fatal problem in one struct is reported on its Model and does not stop
// the others.
func ParseSource(filename string, src []byte, opts Options) ([]Model, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	var models []Model
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}

			docs := []*ast.CommentGroup{ts.Doc}
			if len(gd.Specs) == 1 {
				docs = append(docs, gd.Doc)
			}
			text, found := findDirective(docs...)
			if !found {
				continue
			}
			models = append(models, parseModel(ts.Name.Name, text, st, opts))
		}
	}

	if len(models) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrNoModels)
	}
	return models, nil
}

func parseModel(typeName, directive string, st *ast.StructType, opts Options) Model {
	m := Model{TypeName: typeName}

	dir, err := ParseDirective(directive)
	if err != nil {
		m.Diagnostics.Add(diag.MissingTableAnnotation, "", "", "%s: malformed directive: %v", typeName, err)
		return m
	}
	if dir.Name == "" {
		m.Diagnostics.Add(diag.MissingTableAnnotation, "", "", "%s: directive has no table name", typeName)
		return m
	}
	for _, k := range dir.Unknown {
		m.Diagnostics.Add(diag.MalformedFieldAnnotation, dir.Name, "", "unknown directive key %q", k)
	}

	spec := schema.TableSpec{Name: dir.Name, Comment: dir.Comment, HasComment: dir.HasComment}

	decl := 0
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			m.Diagnostics.Add(diag.MalformedFieldAnnotation, dir.Name, "", "embedded field %s ignored", exprString(field.Type))
			continue
		}
		for _, ident := range field.Names {
			col, ok := parseField(dir.Name, ident.Name, field, decl, &m.Diagnostics)
			if !ok {
				continue
			}
			spec.Columns = append(spec.Columns, col)
			decl++
		}
	}

	resolvePrimaryKey(&spec, dir, &m.Diagnostics)

	sdOpts := opts.SoftDelete
	if dir.SoftDelete != "" {
		sdOpts.Override = dir.SoftDelete
		for _, c := range spec.Columns {
			if c.SoftDelete && c.Name != dir.SoftDelete {
				m.Diagnostics.Add(diag.MalformedFieldAnnotation, dir.Name, "",
					"directive soft_delete %q disagrees with field flag on %q", dir.SoftDelete, c.Name)
			}
		}
	}
	cols, err := softdelete.Apply(spec.Columns, sdOpts)
	if err != nil {
		var dg diag.Diagnostic
		if errors.As(err, &dg) {
			m.Diagnostics.Append(dg)
		} else {
			m.Diagnostics.Errorf(diag.InvalidSchema, dir.Name, "", "%v", err)
		}
	}
	spec.Columns = cols

	m.Diagnostics.Append(schema.Validate(spec)...)
	m.Diagnostics = m.Diagnostics.ForTable(dir.Name)
	m.Spec = spec
	return m
}

func parseField(table, fieldName string, field *ast.Field, decl int, diags *diag.List) (schema.ColumnSpec, bool) {
	var tag reflect.StructTag
	if field.Tag != nil {
		raw, err := strconv.Unquote(field.Tag.Value)
		if err != nil {
			diags.Add(diag.MalformedFieldAnnotation, table, fieldName, "unreadable struct tag")
		}
		tag = reflect.StructTag(raw)
	}

	name, hasName := tag.Lookup("db")
	if name == "-" {
		return schema.ColumnSpec{}, false
	}
	if i := strings.IndexByte(name, ','); i >= 0 {
		name = name[:i]
	}
	if !hasName || name == "" {
		name = naming.Snake(fieldName)
	}

	colTag, problems := ParseColumnTag(tag.Get("column"))
	for _, p := range problems {
		diags.Add(diag.MalformedFieldAnnotation, table, name, "%s", p)
	}

	scalar, nilable, known := goScalar(field.Type)
	if !known {
		diags.Add(diag.MalformedFieldAnnotation, table, name, "unsupported Go type %s mapped to text", exprString(field.Type))
	}

	c := schema.ColumnSpec{
		Name:          name,
		Type:          scalar,
		Length:        colTag.Length,
		PrimaryKey:    colTag.PrimaryKey,
		AutoIncrement: colTag.AutoIncrement,
		Unique:        colTag.Unique,
		Indexed:       colTag.Index,
		SoftDelete:    colTag.SoftDelete,
		IndexName:     colTag.IndexName,
		HasComment:    colTag.HasComment,
		Comment:       colTag.Comment,
	}
	c.Nullable = (nilable || colTag.Null) && !colTag.NotNull && !colTag.PrimaryKey

	if colTag.HasDefault {
		c.HasDefault = true
		c.Default = normalizeLiteral(scalar, colTag.Default)
		if err := checkDefault(scalar, c.Default); err != nil {
			diags.Add(diag.MalformedFieldAnnotation, table, name, "default %q: %v", colTag.Default, err)
		}
	}

	for _, ref := range colTag.Composite {
		pos := decl
		if ref.HasPosition {
			pos = ref.Position
		}
		c.Composite = append(c.Composite, schema.CompositeMembership{Group: ref.Group, Position: pos, Unique: ref.Unique})
	}

	return c, true
}

func resolvePrimaryKey(spec *schema.TableSpec, dir Directive, diags *diag.List) {
	if pk, ok := spec.PrimaryKey(); ok {
		if dir.PrimaryKey != "" && dir.PrimaryKey != pk {
			diags.Add(diag.MalformedFieldAnnotation, spec.Name, "", "directive pk %q disagrees with field flag on %q", dir.PrimaryKey, pk)
		}
		return
	}

	want := dir.PrimaryKey
	if want == "" {
		want = "id"
	}
	for i := range spec.Columns {
		if spec.Columns[i].Name == want {
			spec.Columns[i].PrimaryKey = true
			spec.Columns[i].Nullable = false
			return
		}
	}
	if dir.PrimaryKey != "" {
		diags.Add(diag.MalformedFieldAnnotation, spec.Name, "", "directive pk %q names no field", dir.PrimaryKey)
	}
}

// goScalar maps a field's Go type to a scalar type. nilable reports a
// pointer, slice, or sql.Null wrapper.
func goScalar(expr ast.Expr) (scalar schema.ScalarType, nilable, known bool) {
	switch t := expr.(type) {
	case *ast.StarExpr:
		s, _, ok := goScalar(t.X)
		return s, true, ok
	case *ast.ArrayType:
		if t.Len == nil {
			if id, ok := t.Elt.(*ast.Ident); ok && (id.Name == "byte" || id.Name == "uint8") {
				return schema.Binary, true, true
			}
		}
	case *ast.Ident:
		switch t.Name {
		case "int8", "int16", "uint8", "uint16", "byte":
			return schema.Int16, false, true
		case "int32", "uint32", "rune":
			return schema.Int32, false, true
		case "int", "int64", "uint", "uint64":
			return schema.Int64, false, true
		case "bool":
			return schema.Bool, false, true
		case "float32", "float64":
			return schema.Float64, false, true
		case "string":
			return schema.Text, false, true
		}
	case *ast.SelectorExpr:
		switch exprString(t) {
		case "civil.Date":
			return schema.Date, false, true
		case "civil.DateTime":
			return schema.DateTimeNaive, false, true
		case "time.Time":
			return schema.DateTimeWithZone, false, true
		case "json.RawMessage":
			return schema.Json, true, true
		case "uuid.UUID":
			return schema.Uuid, false, true
		case "uuid.NullUUID":
			return schema.Uuid, true, true
		case "sql.NullString":
			return schema.Text, true, true
		case "sql.NullInt16", "sql.NullByte":
			return schema.Int16, true, true
		case "sql.NullInt32":
			return schema.Int32, true, true
		case "sql.NullInt64":
			return schema.Int64, true, true
		case "sql.NullFloat64":
			return schema.Float64, true, true
		case "sql.NullBool":
			return schema.Bool, true, true
		case "sql.NullTime":
			return schema.DateTimeWithZone, true, true
		}
	}
	return schema.Text, false, false
}

func exprString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return exprString(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return "*" + exprString(t.X)
	case *ast.ArrayType:
		return "[]" + exprString(t.Elt)
	case *ast.MapType:
		return "map[" + exprString(t.Key) + "]" + exprString(t.Value)
	}
	return fmt.Sprintf("%T", expr)
}

// normalizeLiteral spells boolean defaults as true or false.
func normalizeLiteral(t schema.ScalarType, v string) string {
	if t != schema.Bool {
		return v
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t":
		return "true"
	case "0", "false", "f":
		return "false"
	}
	return v
}

// IsFunctionDefault reports whether a default literal is an SQL expression
// rather than a value. Only the niladic datetime keywords and a single call
// of the form name(...) qualify, so "n/a (none)" is a value.
func IsFunctionDefault(v string) bool {
	v = strings.TrimSpace(v)
	if sqlKeywordDefaults[strings.ToUpper(v)] {
		return true
	}
	return isCall(v)
}

var sqlKeywordDefaults = map[string]bool{
	"CURRENT_TIMESTAMP": true,
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
	"LOCALTIMESTAMP":    true,
	"LOCALTIME":         true,
}

// isCall reports whether v is an identifier followed by one parenthesised
// argument list that closes at the last byte.
func isCall(v string) bool {
	open := strings.IndexByte(v, '(')
	if open <= 0 || !isIdent(v[:open]) {
		return false
	}
	depth, quoted := 0, false
	for i := open; i < len(v); i++ {
		switch c := v[i]; {
		case c == '\'':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i == len(v)-1
			}
		}
	}
	return false
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}

func checkDefault(t schema.ScalarType, v string) error {
	if IsFunctionDefault(v) {
		return nil
	}
	var err error
	switch t {
	case schema.Int16, schema.Int32, schema.Int64:
		_, err = strconv.ParseInt(v, 10, 64)
	case schema.Float64:
		_, err = strconv.ParseFloat(v, 64)
	case schema.Bool:
		if v != "true" && v != "false" {
			err = fmt.Errorf("not a boolean")
		}
	case schema.Uuid:
		_, err = uuid.Parse(v)
	case schema.Date:
		_, err = civil.ParseDate(v)
	case schema.DateTimeNaive:
		_, err = civil.ParseDateTime(strings.Replace(v, " ", "T", 1))
	}
	return err
}
