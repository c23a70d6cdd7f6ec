package typemap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemabridge/internal/diag"
	"github.com/tordrt/schemabridge/internal/dialect"
	"github.com/tordrt/schemabridge/internal/schema"
)

func strPtr(s string) *string { return &s }

func TestForward(t *testing.T) {
	tests := []struct {
		dialect schema.Dialect
		token   string
		extra   string
		def     *string
		want    schema.ScalarType
		length  int
		autoInc bool
		warn    bool
	}{
		{schema.MySQL, "tinyint(1)", "", nil, schema.Bool, 0, false, false},
		{schema.MySQL, "tinyint(4)", "", nil, schema.Int16, 0, false, false},
		{schema.MySQL, "tinyint unsigned", "", nil, schema.Int16, 0, false, false},
		{schema.MySQL, "bit(1)", "", nil, schema.Bool, 0, false, false},
		{schema.MySQL, "int(11) unsigned zerofill", "", nil, schema.Int32, 0, false, false},
		{schema.MySQL, "bigint(20)", "auto_increment", nil, schema.Int64, 0, true, false},
		{schema.MySQL, "smallint", "AUTO_INCREMENT", nil, schema.Int16, 0, true, false},
		{schema.MySQL, "varchar(255)", "", nil, schema.Text, 255, false, false},
		{schema.MySQL, "char(36)", "", nil, schema.Text, 36, false, false},
		{schema.MySQL, "longtext", "", nil, schema.Text, 0, false, false},
		{schema.MySQL, "enum('a','b')", "", nil, schema.Text, 0, false, false},
		{schema.MySQL, "decimal(10,2)", "", nil, schema.Float64, 0, false, false},
		{schema.MySQL, "datetime(3)", "", nil, schema.DateTimeNaive, 0, false, false},
		{schema.MySQL, "timestamp", "", nil, schema.DateTimeWithZone, 0, false, false},
		{schema.MySQL, "json", "", nil, schema.Json, 0, false, false},
		{schema.MySQL, "mediumblob", "", nil, schema.Binary, 0, false, false},
		{schema.MySQL, "geometry", "", nil, schema.Text, 0, false, true},
		{schema.Postgres, "character varying(64)", "", nil, schema.Text, 64, false, false},
		{schema.Postgres, "character varying", "", nil, schema.Text, 0, false, false},
		{schema.Postgres, "integer", "", strPtr("nextval('users_id_seq'::regclass)"), schema.Int32, 0, true, false},
		{schema.Postgres, "bigint", "identity", nil, schema.Int64, 0, true, false},
		{schema.Postgres, "smallserial", "", nil, schema.Int16, 0, true, false},
		{schema.Postgres, "boolean", "", nil, schema.Bool, 0, false, false},
		{schema.Postgres, "double precision", "", nil, schema.Float64, 0, false, false},
		{schema.Postgres, "timestamp without time zone", "", nil, schema.DateTimeNaive, 0, false, false},
		{schema.Postgres, "timestamp(6) with time zone", "", nil, schema.DateTimeWithZone, 0, false, false},
		{schema.Postgres, "timestamp", "", nil, schema.DateTimeNaive, 0, false, false},
		{schema.Postgres, "jsonb", "", nil, schema.Json, 0, false, false},
		{schema.Postgres, "bytea", "", nil, schema.Binary, 0, false, false},
		{schema.Postgres, "uuid", "", nil, schema.Uuid, 0, false, false},
		{schema.Postgres, "time without time zone", "", nil, schema.Text, 0, false, true},
		{schema.Postgres, "tsvector", "", nil, schema.Text, 0, false, true},
		{schema.Postgres, "integer[]", "", nil, schema.Text, 0, false, true},
		{schema.Postgres, "character varying(20)[]", "", nil, schema.Text, 0, false, true},
		{schema.Postgres, "bigint ARRAY", "", strPtr("nextval('t_id_seq'::regclass)"), schema.Text, 0, false, true},
		{schema.Postgres, "array", "", nil, schema.Text, 0, false, true},
		{schema.MySQL, "integer[]", "", nil, schema.Text, 0, false, true},
		{schema.SQLite, "INTEGER", "", nil, schema.Int32, 0, false, false},
		{schema.SQLite, "UNSIGNED BIG INT", "", nil, schema.Int64, 0, false, false},
		{schema.SQLite, "VARCHAR(20)", "", nil, schema.Text, 20, false, false},
		{schema.SQLite, "NATIVE CHARACTER(70)", "", nil, schema.Text, 70, false, false},
		{schema.SQLite, "REAL", "", nil, schema.Float64, 0, false, false},
		{schema.SQLite, "DATETIME", "", nil, schema.DateTimeNaive, 0, false, false},
		{schema.SQLite, "TIMESTAMPTZ", "", nil, schema.DateTimeWithZone, 0, false, false},
		{schema.SQLite, "widget", "", nil, schema.Text, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.String()+"/"+tt.token, func(t *testing.T) {
			m := Forward(tt.dialect, RawType{Token: tt.token, Extra: tt.extra, Default: tt.def})
			assert.Equal(t, tt.want, m.Type)
			assert.Equal(t, tt.length, m.Length)
			assert.Equal(t, tt.autoInc, m.AutoIncrement)
			if tt.warn {
				require.Len(t, m.Diagnostics, 1)
				assert.Equal(t, diag.UnsupportedRawType, m.Diagnostics[0].Kind)
				assert.Equal(t, diag.Warning, m.Diagnostics[0].Severity)
			} else {
				assert.Empty(t, m.Diagnostics)
			}
		})
	}
}

func TestNormalizeDefault(t *testing.T) {
	tests := []struct {
		name    string
		dialect schema.Dialect
		scalar  schema.ScalarType
		raw     *string
		autoInc bool
		want    string
		wantOK  bool
	}{
		{"absent", schema.MySQL, schema.Text, nil, false, "", false},
		{"null", schema.Postgres, schema.Text, strPtr("NULL"), false, "", false},
		{"null cast", schema.Postgres, schema.Text, strPtr("NULL::character varying"), false, "", false},
		{"nextval", schema.Postgres, schema.Int64, strPtr("nextval('t_id_seq'::regclass)"), true, "", false},
		{"auto increment", schema.MySQL, schema.Int64, strPtr("0"), true, "", false},
		{"pg string cast", schema.Postgres, schema.Text, strPtr("'active'::character varying"), false, "active", true},
		{"pg escaped quote", schema.Postgres, schema.Text, strPtr("'it''s'::text"), false, "it's", true},
		{"pg numeric cast", schema.Postgres, schema.Int32, strPtr("0::smallint"), false, "0", true},
		{"pg negative", schema.Postgres, schema.Int32, strPtr("'-1'::integer"), false, "-1", true},
		{"pg now", schema.Postgres, schema.DateTimeWithZone, strPtr("now()"), false, "now()", true},
		{"mysql bool 1", schema.MySQL, schema.Bool, strPtr("1"), false, "true", true},
		{"mysql bit", schema.MySQL, schema.Bool, strPtr("b'0'"), false, "false", true},
		{"pg bool", schema.Postgres, schema.Bool, strPtr("true"), false, "true", true},
		{"sqlite bool quoted", schema.SQLite, schema.Bool, strPtr("'t'"), false, "true", true},
		{"mysql function", schema.MySQL, schema.DateTimeNaive, strPtr("CURRENT_TIMESTAMP(3)"), false, "CURRENT_TIMESTAMP(3)", true},
		{"mysql plain", schema.MySQL, schema.Text, strPtr("guest"), false, "guest", true},
		{"sqlite quoted", schema.SQLite, schema.Text, strPtr("'guest'"), false, "guest", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDefault(tt.dialect, tt.scalar, tt.raw, tt.autoInc)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReverseIsExhaustive(t *testing.T) {
	for _, p := range dialect.All() {
		for _, st := range schema.AllScalarTypes() {
			r, err := Reverse(p, schema.ColumnSpec{Name: "c", Type: st}, false)
			require.NoError(t, err, "%s/%s", p.Dialect, st)
			assert.NotEmpty(t, r.Token, "%s/%s", p.Dialect, st)
		}
	}
}

func TestReverseTable(t *testing.T) {
	want := map[schema.ScalarType][3]string{
		schema.Int16:            {"SMALLINT", "SMALLINT", "INTEGER"},
		schema.Int32:            {"INT", "INTEGER", "INTEGER"},
		schema.Int64:            {"BIGINT", "BIGINT", "INTEGER"},
		schema.Bool:             {"TINYINT(1)", "BOOLEAN", "INTEGER"},
		schema.Float64:          {"DOUBLE", "DOUBLE PRECISION", "REAL"},
		schema.Text:             {"TEXT", "TEXT", "TEXT"},
		schema.Date:             {"DATE", "DATE", "DATE"},
		schema.DateTimeNaive:    {"DATETIME", "TIMESTAMP", "DATETIME"},
		schema.DateTimeWithZone: {"TIMESTAMP", "TIMESTAMP WITH TIME ZONE", "TIMESTAMPTZ"},
		schema.Binary:           {"BLOB", "BYTEA", "BLOB"},
		schema.Json:             {"JSON", "JSONB", "TEXT"},
		schema.Uuid:             {"CHAR(36)", "UUID", "TEXT"},
	}
	require.Len(t, want, len(schema.AllScalarTypes()))

	for st, tokens := range want {
		for i, d := range schema.AllDialects() {
			r, err := Reverse(dialect.MustFor(d), schema.ColumnSpec{Type: st}, false)
			require.NoError(t, err)
			assert.Equal(t, tokens[i], r.Token, "%s/%s", d, st)
		}
	}

	for _, d := range schema.AllDialects() {
		r, err := Reverse(dialect.MustFor(d), schema.ColumnSpec{Type: schema.Text, Length: 64}, false)
		require.NoError(t, err)
		assert.Equal(t, "VARCHAR(64)", r.Token)
	}
}

func TestReverseUnknown(t *testing.T) {
	_, err := Reverse(dialect.MustFor(schema.MySQL), schema.ColumnSpec{Type: schema.ScalarType(99)}, false)
	assert.True(t, errors.Is(err, diag.ErrUnknownDialectPolicy))

	_, err = Reverse(dialect.Policy{Dialect: schema.Dialect(7)}, schema.ColumnSpec{Type: schema.Int64}, false)
	assert.True(t, errors.Is(err, diag.ErrUnknownDialectPolicy))
}

func TestReverseAutoIncrement(t *testing.T) {
	pk := schema.ColumnSpec{Name: "id", Type: schema.Int64, PrimaryKey: true, AutoIncrement: true}

	r, err := Reverse(dialect.MustFor(schema.MySQL), pk, true)
	require.NoError(t, err)
	assert.Equal(t, "BIGINT AUTO_INCREMENT", r.Token)
	assert.False(t, r.InlinePK)

	r, err = Reverse(dialect.MustFor(schema.Postgres), pk, true)
	require.NoError(t, err)
	assert.Equal(t, "BIGSERIAL", r.Token)

	r, err = Reverse(dialect.MustFor(schema.SQLite), pk, true)
	require.NoError(t, err)
	assert.Equal(t, "INTEGER PRIMARY KEY AUTOINCREMENT", r.Token)
	assert.True(t, r.InlinePK)

	notPK := pk
	notPK.PrimaryKey = false
	r, err = Reverse(dialect.MustFor(schema.SQLite), notPK, false)
	require.NoError(t, err)
	assert.Equal(t, "INTEGER", r.Token)
	assert.False(t, r.InlinePK)
}

func TestReverseBoolNote(t *testing.T) {
	c := schema.ColumnSpec{Type: schema.Bool}
	for _, d := range []schema.Dialect{schema.MySQL, schema.SQLite} {
		r, err := Reverse(dialect.MustFor(d), c, false)
		require.NoError(t, err)
		assert.Equal(t, BoolNote, r.Note)
	}
	r, err := Reverse(dialect.MustFor(schema.Postgres), c, false)
	require.NoError(t, err)
	assert.Empty(t, r.Note)
}

// A 1-width tinyint with default 1 and NOT NULL becomes a non-null Bool
// defaulting to true.
func TestScenarioTinyintBool(t *testing.T) {
	raw := schema.RawTable{
		Name:       "flags",
		PrimaryKey: []string{"id"},
		Columns: []schema.RawColumn{
			{Name: "id", Type: "bigint(20)", Extra: "auto_increment"},
			{Name: "enabled", Type: "tinyint(1)", DefaultValue: strPtr("1")},
		},
	}

	spec, diags := BuildTableSpec(schema.MySQL, raw, BuildOptions{})
	require.False(t, diags.HasErrors(), diags.Err())

	c, ok := spec.Column("enabled")
	require.True(t, ok)
	assert.Equal(t, schema.Bool, c.Type)
	assert.False(t, c.Nullable)
	assert.True(t, c.HasDefault)
	assert.Equal(t, "true", c.Default)
}

func TestScenarioSmallSerial(t *testing.T) {
	raw := schema.RawTable{
		Name:       "counters",
		PrimaryKey: []string{"id"},
		Columns: []schema.RawColumn{
			{Name: "id", Type: "smallint", DefaultValue: strPtr("nextval('counters_id_seq'::regclass)")},
		},
	}

	spec, diags := BuildTableSpec(schema.Postgres, raw, BuildOptions{})
	require.Empty(t, diags)

	c := spec.Columns[0]
	assert.Equal(t, schema.Int16, c.Type)
	assert.True(t, c.AutoIncrement)
	assert.True(t, c.PrimaryKey)
	assert.False(t, c.HasDefault)

	r, err := Reverse(dialect.MustFor(schema.Postgres), c, true)
	require.NoError(t, err)
	assert.Equal(t, "SMALLSERIAL", r.Token)
}

func TestBuildTableSpec(t *testing.T) {
	raw := schema.RawTable{
		Name:       "users",
		Comment:    strPtr("user accounts"),
		PrimaryKey: []string{"id"},
		Columns: []schema.RawColumn{
			{Name: "id", Type: "bigint", Extra: "auto_increment"},
			{Name: "email", Type: "varchar(255)", Comment: strPtr("login")},
			{Name: "first_name", Type: "varchar(64)", Nullable: true},
			{Name: "last_name", Type: "varchar(64)", Nullable: true},
			{Name: "status", Type: "varchar(16)", DefaultValue: strPtr("active")},
			{Name: "deleted_at", Type: "datetime", Nullable: true},
		},
		Indexes: []schema.RawIndex{
			{Name: "uk_users_email", Columns: []string{"email"}, IsUnique: true},
			{Name: "status_lookup", Columns: []string{"status"}},
			{Name: "idx_name", Columns: []string{"last_name", "first_name"}},
		},
	}

	spec, diags := BuildTableSpec(schema.MySQL, raw, BuildOptions{})
	require.Empty(t, diags)

	assert.True(t, spec.HasComment)
	assert.Equal(t, "user accounts", spec.Comment)

	email, _ := spec.Column("email")
	assert.True(t, email.Unique)
	assert.Empty(t, email.IndexName)
	assert.Equal(t, 255, email.Length)
	assert.Equal(t, "login", email.Comment)

	status, _ := spec.Column("status")
	assert.True(t, status.Indexed)
	assert.Equal(t, "status_lookup", status.IndexName)
	assert.Equal(t, "active", status.Default)

	last, _ := spec.Column("last_name")
	assert.Equal(t, []schema.CompositeMembership{{Group: "idx_name", Position: 0}}, last.Composite)

	sd, ok := spec.SoftDeleteColumn()
	assert.True(t, ok)
	assert.Equal(t, "deleted_at", sd)
}

func TestBuildTableSpecAmbiguousSoftDelete(t *testing.T) {
	raw := schema.RawTable{
		Name:       "posts",
		PrimaryKey: []string{"id"},
		Columns: []schema.RawColumn{
			{Name: "id", Type: "integer"},
			{Name: "is_del", Type: "boolean"},
			{Name: "deleted_at", Type: "timestamp", Nullable: true},
		},
	}

	spec, diags := BuildTableSpec(schema.Postgres, raw, BuildOptions{})
	require.True(t, diags.HasErrors())
	found := diags.Filter(diag.AmbiguousSoftDeleteColumn)
	require.Len(t, found, 1)
	assert.Equal(t, "posts", found[0].Table)

	_, ok := spec.SoftDeleteColumn()
	assert.False(t, ok)

	_, diags = BuildTableSpec(schema.Postgres, raw, BuildOptions{})
	assert.True(t, errors.Is(diags.Err(), diag.ErrAmbiguousSoftDeleteColumn))
}

func TestBuildTableSpecArrayColumn(t *testing.T) {
	raw := schema.RawTable{
		Name:       "tags",
		PrimaryKey: []string{"id"},
		Columns: []schema.RawColumn{
			{Name: "id", Type: "integer"},
			{Name: "scores", Type: "integer[]", Nullable: true},
		},
	}

	for _, d := range []schema.Dialect{schema.MySQL, schema.Postgres} {
		t.Run(d.String(), func(t *testing.T) {
			spec, diags := BuildTableSpec(d, raw, BuildOptions{})
			assert.False(t, diags.HasErrors())

			scores, ok := spec.Column("scores")
			require.True(t, ok)
			assert.Equal(t, schema.Text, scores.Type)
			assert.Equal(t, "integer[]", scores.RawType)

			found := diags.Filter(diag.UnsupportedRawType)
			require.Len(t, found, 1)
			assert.Equal(t, "scores", found[0].Column)
		})
	}
}

func TestBuildTableSpecCompositePrimaryKey(t *testing.T) {
	raw := schema.RawTable{
		Name:       "memberships",
		PrimaryKey: []string{"user_id", "group_id"},
		Columns: []schema.RawColumn{
			{Name: "user_id", Type: "INTEGER"},
			{Name: "group_id", Type: "INTEGER"},
		},
	}

	spec, diags := BuildTableSpec(schema.SQLite, raw, BuildOptions{})
	assert.False(t, diags.HasErrors())
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Warning, diags[0].Severity)

	pk, _ := spec.PrimaryKey()
	assert.Equal(t, "user_id", pk)
	assert.False(t, spec.Columns[1].PrimaryKey)

	idx := spec.Indexes()
	require.Len(t, idx, 1)
	assert.Equal(t, []string{"user_id", "group_id"}, idx[0].Columns)
	assert.True(t, idx[0].Unique)
}
