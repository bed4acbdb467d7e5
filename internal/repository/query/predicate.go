// Package query builds the WHERE clause of the incident filter query.
//
// Column names come from a fixed table and values are always bound as
// placeholders, so no request input is ever interpolated into SQL text.
package query

import (
	"strconv"
	"strings"

	"github.com/smartcity/incidentmap/internal/domain"
)

// Placeholder renders the bind marker for the n-th (1-based) argument
type Placeholder func(n int) string

// Dollar renders PostgreSQL markers ($1, $2, ...)
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Question renders SQLite markers (?)
func Question(int) string { return "?" }

// predicateColumns maps each filter attribute to its storage column
var predicateColumns = []struct {
	attr   domain.Attribute
	column string
}{
	{domain.AttrDistrict, "dst_name"},
	{domain.AttrComplaint, "complaint"},
	{domain.AttrCallType, "call_type"},
}

// Where returns " WHERE a = $1 AND b = $2" for the present fields of p (empty for
// the empty predicate) and the matching argument list.
func Where(p domain.FilterPredicate, ph Placeholder) (string, []any) {
	var (
		conds []string
		args  []any
	)
	for _, pc := range predicateColumns {
		v := p.Value(pc.attr)
		if v == "" {
			continue
		}
		args = append(args, v)
		conds = append(conds, pc.column+" = "+ph(len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Dialect describes how a store selects incident rows
type Dialect struct {
	Name        string
	Select      string // SELECT ... FROM ... without a WHERE clause
	OrderBy     string
	Placeholder Placeholder
}

// PostGIS reads positions out of the geometry column
var PostGIS = Dialect{
	Name: "postgis",
	Select: `SELECT COALESCE(id::text, '') AS id, COALESCE(datetime::text, ''), COALESCE(complaint, ''),
		COALESCE(address, ''), COALESCE(dst_name, ''), COALESCE(call_type, ''),
		ST_X(geom) AS lon, ST_Y(geom) AS lat
	FROM incidents`,
	OrderBy:     "id",
	Placeholder: Dollar,
}

// SQLite stores positions as plain lon/lat columns
var SQLite = Dialect{
	Name: "sqlite",
	Select: `SELECT COALESCE(CAST(id AS TEXT), '') AS id, COALESCE(datetime, ''), COALESCE(complaint, ''),
		COALESCE(address, ''), COALESCE(dst_name, ''), COALESCE(call_type, ''),
		lon, lat
	FROM incidents`,
	OrderBy:     "seq",
	Placeholder: Question,
}

// Build returns the full filter query for p
func (d Dialect) Build(p domain.FilterPredicate) (string, []any) {
	where, args := Where(p, d.Placeholder)
	return d.Select + where + " ORDER BY " + d.OrderBy, args
}

// Scanner is satisfied by pgx.Rows and *sql.Rows
type Scanner interface {
	Scan(dest ...any) error
}

// ScanIncident reads one row selected by a Dialect
func ScanIncident(s Scanner) (domain.Incident, error) {
	var (
		inc      domain.Incident
		lon, lat *float64
	)
	if err := s.Scan(
		&inc.ID, &inc.Datetime, &inc.Complaint,
		&inc.Address, &inc.District, &inc.CallType,
		&lon, &lat,
	); err != nil {
		return domain.Incident{}, err
	}
	inc.Position = domain.NewPosition(lon, lat)
	return inc, nil
}
