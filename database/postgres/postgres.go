// Package postgres exports the schema of a live database. Objects are read
// from the system catalogs as DDL text and folded through the shared parser,
// so a live database and a file tree produce snapshots the same way.
package postgres

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"

	_ "github.com/lib/pq"

	"github.com/pgplan/pgplan/database"
	"github.com/pgplan/pgplan/parser"
	"github.com/pgplan/pgplan/schema"
)

type PostgresSource struct {
	config database.Config
	db     *sql.DB
}

func NewSource(config database.Config) (*PostgresSource, error) {
	db, err := sql.Open("postgres", buildDSN(config))
	if err != nil {
		return nil, err
	}
	return &PostgresSource{
		config: config,
		db:     db,
	}, nil
}

func (d *PostgresSource) ExportSchema() (*schema.Schema, error) {
	ddls, err := d.exportDDLs()
	if err != nil {
		return nil, err
	}
	return parser.ParseSchema(strings.Join(ddls, "\n"))
}

func (d *PostgresSource) DB() *sql.DB {
	return d.db
}

func (d *PostgresSource) Close() error {
	return d.db.Close()
}

func (d *PostgresSource) exportDDLs() ([]string, error) {
	var ddls []string
	for _, export := range []func() ([]string, error){
		d.schemas,
		d.extensions,
		d.enums,
		d.domains,
		d.sequences,
		d.tables,
		d.indexes,
		d.foreignKeys,
		d.views,
		d.materializedViews,
		d.functions,
		d.triggers,
		d.policies,
	} {
		exported, err := export()
		if err != nil {
			return nil, err
		}
		ddls = append(ddls, exported...)
	}
	return ddls, nil
}

func (d *PostgresSource) schemas() ([]string, error) {
	rows, err := d.db.Query(`
		select nspname from pg_catalog.pg_namespace
		where nspname not in ('information_schema', 'public')
		and nspname not like 'pg\_%'
		order by nspname asc;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		ddls = append(ddls, fmt.Sprintf("CREATE SCHEMA %s;", schema.QuoteIdent(name)))
	}
	return ddls, rows.Err()
}

func (d *PostgresSource) extensions() ([]string, error) {
	rows, err := d.db.Query(`
		select extname from pg_catalog.pg_extension
		where extname != 'plpgsql'
		order by extname asc;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		ddls = append(ddls, fmt.Sprintf("CREATE EXTENSION %s;", schema.QuoteIdent(name)))
	}
	return ddls, rows.Err()
}

func (d *PostgresSource) enums() ([]string, error) {
	rows, err := d.db.Query(`
		select n.nspname, t.typname, array_to_string(array_agg(quote_literal(e.enumlabel) order by e.enumsortorder), ', ')
		from pg_catalog.pg_type t
		inner join pg_catalog.pg_namespace n on n.oid = t.typnamespace
		inner join pg_catalog.pg_enum e on e.enumtypid = t.oid
		where n.nspname not in ('information_schema', 'pg_catalog')
		group by n.nspname, t.typname
		order by n.nspname asc, t.typname asc;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var schemaName, name, labels string
		if err := rows.Scan(&schemaName, &name, &labels); err != nil {
			return nil, err
		}
		ddls = append(ddls, fmt.Sprintf("CREATE TYPE %s AS ENUM (%s);", qualify(schemaName, name), labels))
	}
	return ddls, rows.Err()
}

func (d *PostgresSource) domains() ([]string, error) {
	rows, err := d.db.Query(`
		select n.nspname, t.typname, pg_catalog.format_type(t.typbasetype, t.typtypmod), t.typnotnull,
		       coalesce(t.typdefault, ''),
		       coalesce((select string_agg(pg_get_constraintdef(c.oid), ' ') from pg_catalog.pg_constraint c where c.contypid = t.oid), '')
		from pg_catalog.pg_type t
		inner join pg_catalog.pg_namespace n on n.oid = t.typnamespace
		where t.typtype = 'd'
		and n.nspname not in ('information_schema', 'pg_catalog')
		order by n.nspname asc, t.typname asc;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var schemaName, name, baseType, defaultExpr, constraints string
		var notNull bool
		if err := rows.Scan(&schemaName, &name, &baseType, &notNull, &defaultExpr, &constraints); err != nil {
			return nil, err
		}
		ddl := fmt.Sprintf("CREATE DOMAIN %s AS %s", qualify(schemaName, name), baseType)
		if notNull {
			ddl += " NOT NULL"
		}
		if defaultExpr != "" {
			ddl += " DEFAULT " + defaultExpr
		}
		if constraints != "" {
			ddl += " " + constraints
		}
		ddls = append(ddls, ddl+";")
	}
	return ddls, rows.Err()
}

func (d *PostgresSource) sequences() ([]string, error) {
	rows, err := d.db.Query(`
		select schemaname, sequencename, start_value, increment_by, min_value, max_value, cache_size, cycle
		from pg_catalog.pg_sequences
		where schemaname not in ('information_schema', 'pg_catalog')
		and not exists (
		  select * from pg_catalog.pg_class c
		  inner join pg_catalog.pg_depend dep on dep.objid = c.oid and dep.deptype = 'a'
		  where c.relname = sequencename and c.relkind = 'S'
		)
		order by schemaname asc, sequencename asc;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var schemaName, name string
		var start, increment, minValue, maxValue, cache int64
		var cycle bool
		if err := rows.Scan(&schemaName, &name, &start, &increment, &minValue, &maxValue, &cache, &cycle); err != nil {
			return nil, err
		}
		ddl := fmt.Sprintf(
			"CREATE SEQUENCE %s START WITH %d INCREMENT BY %d MINVALUE %d MAXVALUE %d CACHE %d",
			qualify(schemaName, name), start, increment, minValue, maxValue, cache,
		)
		if cycle {
			ddl += " CYCLE"
		}
		ddls = append(ddls, ddl+";")
	}
	return ddls, rows.Err()
}

func (d *PostgresSource) tables() ([]string, error) {
	names, err := d.tableNames()
	if err != nil {
		return nil, err
	}

	var ddls []string
	for _, name := range names {
		ddl, err := d.exportTableDDL(name[0], name[1])
		if err != nil {
			return nil, err
		}
		ddls = append(ddls, ddl)
	}
	return ddls, nil
}

func (d *PostgresSource) tableNames() ([][2]string, error) {
	rows, err := d.db.Query(`
		select n.nspname, c.relname from pg_catalog.pg_class c
		inner join pg_catalog.pg_namespace n on c.relnamespace = n.oid
		where n.nspname not in ('information_schema', 'pg_catalog')
		and c.relkind in ('r', 'p')
		and c.relispartition = false
		and not exists (select * from pg_catalog.pg_depend dep where c.oid = dep.objid and dep.deptype = 'e')
		order by n.nspname asc, c.relname asc;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names [][2]string
	for rows.Next() {
		var schemaName, name string
		if err := rows.Scan(&schemaName, &name); err != nil {
			return nil, err
		}
		names = append(names, [2]string{schemaName, name})
	}
	return names, rows.Err()
}

func (d *PostgresSource) exportTableDDL(schemaName, tableName string) (string, error) {
	columns, err := d.columnDefinitions(schemaName, tableName)
	if err != nil {
		return "", err
	}
	constraints, err := d.tableConstraints(schemaName, tableName)
	if err != nil {
		return "", err
	}

	lines := append(columns, constraints...)
	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n);", qualify(schemaName, tableName), strings.Join(lines, ",\n    ")), nil
}

func (d *PostgresSource) columnDefinitions(schemaName, tableName string) ([]string, error) {
	rows, err := d.db.Query(`
		select f.attname,
		       pg_catalog.format_type(f.atttypid, f.atttypmod),
		       f.attnotnull,
		       f.attidentity,
		       f.attgenerated,
		       coalesce(pg_get_expr(ad.adbin, ad.adrelid), ''),
		       coalesce(col.collname, '')
		from pg_catalog.pg_attribute f
		inner join pg_catalog.pg_class c on c.oid = f.attrelid
		inner join pg_catalog.pg_namespace n on n.oid = c.relnamespace
		left join pg_catalog.pg_attrdef ad on ad.adrelid = c.oid and ad.adnum = f.attnum
		left join pg_catalog.pg_collation col on col.oid = f.attcollation and col.collname != 'default'
		where n.nspname = $1 and c.relname = $2
		and f.attnum > 0 and not f.attisdropped
		order by f.attnum asc;
	`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var definitions []string
	for rows.Next() {
		var name, typeName, identity, generated, defaultExpr, collation string
		var notNull bool
		if err := rows.Scan(&name, &typeName, &notNull, &identity, &generated, &defaultExpr, &collation); err != nil {
			return nil, err
		}

		definition := schema.QuoteIdent(name) + " " + typeName
		if collation != "" {
			definition += " COLLATE " + schema.QuoteIdent(collation)
		}
		switch {
		case generated == "s":
			definition += fmt.Sprintf(" GENERATED ALWAYS AS (%s) STORED", defaultExpr)
		case identity == "a":
			definition += " GENERATED ALWAYS AS IDENTITY"
		case identity == "d":
			definition += " GENERATED BY DEFAULT AS IDENTITY"
		case defaultExpr != "":
			definition += " DEFAULT " + defaultExpr
		}
		if notNull {
			definition += " NOT NULL"
		}
		definitions = append(definitions, definition)
	}
	return definitions, rows.Err()
}

// tableConstraints returns primary key, unique and check constraints. Foreign
// keys are exported separately so they land after every table exists.
func (d *PostgresSource) tableConstraints(schemaName, tableName string) ([]string, error) {
	rows, err := d.db.Query(`
		select con.conname, pg_get_constraintdef(con.oid, true)
		from pg_catalog.pg_constraint con
		inner join pg_catalog.pg_class c on c.oid = con.conrelid
		inner join pg_catalog.pg_namespace n on n.oid = con.connamespace
		where n.nspname = $1 and c.relname = $2
		and con.contype in ('p', 'u', 'c')
		order by con.conname asc;
	`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var definitions []string
	for rows.Next() {
		var name, definition string
		if err := rows.Scan(&name, &definition); err != nil {
			return nil, err
		}
		definitions = append(definitions, fmt.Sprintf("CONSTRAINT %s %s", schema.QuoteIdent(name), definition))
	}
	return definitions, rows.Err()
}

func (d *PostgresSource) foreignKeys() ([]string, error) {
	rows, err := d.db.Query(`
		select n.nspname, c.relname, con.conname, pg_get_constraintdef(con.oid, true)
		from pg_catalog.pg_constraint con
		inner join pg_catalog.pg_class c on c.oid = con.conrelid
		inner join pg_catalog.pg_namespace n on n.oid = con.connamespace
		where con.contype = 'f'
		and n.nspname not in ('information_schema', 'pg_catalog')
		order by n.nspname asc, c.relname asc, con.conname asc;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var schemaName, tableName, name, definition string
		if err := rows.Scan(&schemaName, &tableName, &name, &definition); err != nil {
			return nil, err
		}
		ddls = append(ddls, fmt.Sprintf(
			"ALTER TABLE %s ADD CONSTRAINT %s %s;",
			qualify(schemaName, tableName), schema.QuoteIdent(name), definition,
		))
	}
	return ddls, rows.Err()
}

// indexes skips constraint-backed indexes; those come back with the table's
// constraints.
func (d *PostgresSource) indexes() ([]string, error) {
	rows, err := d.db.Query(`
		select pg_get_indexdef(i.indexrelid)
		from pg_catalog.pg_index i
		inner join pg_catalog.pg_class c on c.oid = i.indexrelid
		inner join pg_catalog.pg_namespace n on n.oid = c.relnamespace
		where n.nspname not in ('information_schema', 'pg_catalog')
		and not exists (select * from pg_catalog.pg_constraint con where con.conindid = i.indexrelid)
		order by c.relname asc;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var definition string
		if err := rows.Scan(&definition); err != nil {
			return nil, err
		}
		ddls = append(ddls, definition+";")
	}
	return ddls, rows.Err()
}

func (d *PostgresSource) views() ([]string, error) {
	rows, err := d.db.Query(`
		select n.nspname, c.relname, pg_get_viewdef(c.oid)
		from pg_catalog.pg_class c
		inner join pg_catalog.pg_namespace n on c.relnamespace = n.oid
		where n.nspname not in ('information_schema', 'pg_catalog')
		and c.relkind = 'v'
		and not exists (select * from pg_catalog.pg_depend dep where c.oid = dep.objid and dep.deptype = 'e')
		order by n.nspname asc, c.relname asc;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var schemaName, name, definition string
		if err := rows.Scan(&schemaName, &name, &definition); err != nil {
			return nil, err
		}
		definition = strings.TrimRight(strings.TrimSpace(definition), ";")
		ddls = append(ddls, fmt.Sprintf("CREATE VIEW %s AS %s;", qualify(schemaName, name), definition))
	}
	return ddls, rows.Err()
}

func (d *PostgresSource) materializedViews() ([]string, error) {
	rows, err := d.db.Query(`
		select n.nspname, c.relname, pg_get_viewdef(c.oid)
		from pg_catalog.pg_class c
		inner join pg_catalog.pg_namespace n on c.relnamespace = n.oid
		where c.relkind = 'm'
		order by n.nspname asc, c.relname asc;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var schemaName, name, definition string
		if err := rows.Scan(&schemaName, &name, &definition); err != nil {
			return nil, err
		}
		definition = strings.TrimRight(strings.TrimSpace(definition), ";")
		ddls = append(ddls, fmt.Sprintf("CREATE MATERIALIZED VIEW %s AS %s;", qualify(schemaName, name), definition))
	}
	return ddls, rows.Err()
}

func (d *PostgresSource) functions() ([]string, error) {
	rows, err := d.db.Query(`
		select pg_get_functiondef(p.oid)
		from pg_catalog.pg_proc p
		inner join pg_catalog.pg_namespace n on n.oid = p.pronamespace
		where n.nspname not in ('information_schema', 'pg_catalog')
		and p.prokind in ('f', 'p')
		and not exists (select * from pg_catalog.pg_depend dep where p.oid = dep.objid and dep.deptype = 'e')
		order by p.proname asc;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var definition string
		if err := rows.Scan(&definition); err != nil {
			return nil, err
		}
		ddls = append(ddls, strings.TrimSpace(definition)+";")
	}
	return ddls, rows.Err()
}

func (d *PostgresSource) triggers() ([]string, error) {
	rows, err := d.db.Query(`
		select pg_get_triggerdef(t.oid)
		from pg_catalog.pg_trigger t
		inner join pg_catalog.pg_class c on c.oid = t.tgrelid
		inner join pg_catalog.pg_namespace n on n.oid = c.relnamespace
		where n.nspname not in ('information_schema', 'pg_catalog')
		and not t.tgisinternal
		order by t.tgname asc;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var definition string
		if err := rows.Scan(&definition); err != nil {
			return nil, err
		}
		ddls = append(ddls, definition+";")
	}
	return ddls, rows.Err()
}

func (d *PostgresSource) policies() ([]string, error) {
	rows, err := d.db.Query(`
		select schemaname, tablename, policyname, permissive, coalesce(array_to_string(roles, ','), ''),
		       cmd, coalesce(qual, ''), coalesce(with_check, '')
		from pg_catalog.pg_policies
		order by schemaname asc, tablename asc, policyname asc;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ddls []string
	for rows.Next() {
		var schemaName, tableName, name, permissive, roles, cmd, qual, withCheck string
		if err := rows.Scan(&schemaName, &tableName, &name, &permissive, &roles, &cmd, &qual, &withCheck); err != nil {
			return nil, err
		}
		ddl := fmt.Sprintf("CREATE POLICY %s ON %s", schema.QuoteIdent(name), qualify(schemaName, tableName))
		if strings.EqualFold(permissive, "RESTRICTIVE") {
			ddl += " AS RESTRICTIVE"
		}
		if cmd != "" && cmd != "ALL" {
			ddl += " FOR " + cmd
		}
		if roles != "" && roles != "{public}" {
			ddl += " TO " + strings.Trim(roles, "{}")
		}
		if qual != "" {
			ddl += fmt.Sprintf(" USING (%s)", qual)
		}
		if withCheck != "" {
			ddl += fmt.Sprintf(" WITH CHECK (%s)", withCheck)
		}
		ddls = append(ddls, ddl+";")
	}
	return ddls, rows.Err()
}

func qualify(schemaName, name string) string {
	if schemaName == "public" {
		return schema.QuoteIdent(name)
	}
	return schema.QuoteIdent(schemaName) + "." + schema.QuoteIdent(name)
}

func buildDSN(config database.Config) string {
	user := config.User
	password := config.Password
	host := ""
	var options []string

	if config.Socket == "" {
		host = fmt.Sprintf("%s:%d", config.Host, config.Port)
	} else {
		// A unix socket path cannot appear in the host part of a URL, so it
		// goes through the host query option instead.
		options = append(options, fmt.Sprintf("host=%s", config.Socket))
	}

	if config.SslMode != "" {
		options = append(options, fmt.Sprintf("sslmode=%s", config.SslMode))
	} else if sslmode, ok := os.LookupEnv("PGSSLMODE"); ok {
		options = append(options, fmt.Sprintf("sslmode=%s", sslmode))
	}

	return fmt.Sprintf("postgres://%s:%s@%s/%s?%s",
		url.QueryEscape(user), url.QueryEscape(password), host, config.DbName, strings.Join(options, "&"))
}
