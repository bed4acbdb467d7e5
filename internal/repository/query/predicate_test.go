package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/incidentmap/internal/domain"
)

func TestWhere(t *testing.T) {
	cases := []struct {
		name  string
		p     domain.FilterPredicate
		ph    Placeholder
		where string
		args  []any
	}{
		{"empty", domain.FilterPredicate{}, Dollar, "", nil},
		{"district", domain.FilterPredicate{District: "Bhopal"}, Dollar,
			" WHERE dst_name = $1", []any{"Bhopal"}},
		{"numbering skips absent fields", domain.FilterPredicate{District: "Bhopal", CallType: "Emergency"}, Dollar,
			" WHERE dst_name = $1 AND call_type = $2", []any{"Bhopal", "Emergency"}},
		{"all fields", domain.FilterPredicate{District: "Bhopal", Complaint: "Theft", CallType: "Emergency"}, Question,
			" WHERE dst_name = ? AND complaint = ? AND call_type = ?", []any{"Bhopal", "Theft", "Emergency"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			where, args := Where(tc.p, tc.ph)
			assert.Equal(t, tc.where, where)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestWhere_NeverInterpolatesValues(t *testing.T) {
	evil := "x' OR '1'='1"
	where, args := Where(domain.FilterPredicate{Complaint: evil}, Dollar)
	assert.NotContains(t, where, evil)
	assert.Equal(t, []any{evil}, args)
}

func TestDialect_Build(t *testing.T) {
	sql, args := PostGIS.Build(domain.FilterPredicate{Complaint: "Theft"})
	assert.True(t, strings.HasPrefix(sql, PostGIS.Select))
	assert.True(t, strings.HasSuffix(sql, " WHERE complaint = $1 ORDER BY id"))
	assert.Equal(t, []any{"Theft"}, args)

	sql, args = SQLite.Build(domain.FilterPredicate{})
	assert.Equal(t, SQLite.Select+" ORDER BY seq", sql)
	assert.Empty(t, args)
}

type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	if len(dest) != len(r) {
		return errors.New("column count mismatch")
	}
	for i, v := range r {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case **float64:
			if v == nil {
				*d = nil
			} else {
				f := v.(float64)
				*d = &f
			}
		}
	}
	return nil
}

func TestScanIncident(t *testing.T) {
	inc, err := ScanIncident(fakeRow{"7", "2024-01-01 10:00:00", "Theft", "MG Road", "Bhopal", "Emergency", 77.4, 23.3})
	require.NoError(t, err)
	assert.Equal(t, "7", inc.ID)
	assert.Equal(t, "Bhopal", inc.District)
	require.NotNil(t, inc.Position)
	assert.Equal(t, domain.Position{Lon: 77.4, Lat: 23.3}, *inc.Position)

	inc, err = ScanIncident(fakeRow{"8", "", "", "", "Indore", "", nil, nil})
	require.NoError(t, err)
	assert.Nil(t, inc.Position)

	_, err = ScanIncident(fakeRow{"9"})
	assert.Error(t, err)
}
