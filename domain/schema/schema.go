// Package schema locates the semantically meaningful columns of a spreadsheet whose headers vary
// in naming and case, and picks out the noise columns that are dropped from output files.
package schema

import (
	"strings"

	lo "github.com/samber/lo"
)

// Role is the meaning of a column to the engine.
type Role string

const (
	RoleDate        Role = "date"
	RoleHour        Role = "hour"
	RoleConsumption Role = "consumption"
	RolePrice       Role = "price"
	RoleCost        Role = "cost"
)

// synonyms are evaluated in order; the first synonym present in the table wins.
var synonyms = []struct {
	role  Role
	names []string
}{
	{RoleDate, []string{"tarih", "date", "zaman"}},
	{RoleHour, []string{"saat", "time", "hour"}},
	{RoleConsumption, []string{"aktif çekiş", "consumption", "toplam (kwh)", "tuketim", "amount"}},
	{RolePrice, []string{"ptf (tl/mwh)", "ptf"}},
	{RoleCost, []string{"ptf x gerçekleşen tüketim", "ptf kaynaklı tutar", "calculated cost (tl)"}},
}

var (
	dropKeywords = []string{"reaktif", "kapasitif", "indüktif", "veriş", "oran", "tanım", "veri"}
	keepKeywords = []string{"abone", "ünvan", "tarih", "saat", "aktif çekiş", "ptf", "gerçek", "tutar"}
)

// Schema is the resolved column name per role. An empty string means the role is absent.
type Schema struct {
	Date        string
	Hour        string
	Consumption string
	Price       string
	Cost        string
}

// Resolve matches the table headers against the synonym lists, case-insensitively and ignoring
// surrounding whitespace.
func Resolve(columns []string) Schema {
	byLower := map[string]string{}
	for _, c := range columns {
		key := normalize(c)
		if _, dup := byLower[key]; !dup {
			byLower[key] = c
		}
	}
	var s Schema
	for _, entry := range synonyms {
		name, ok := lo.Find(entry.names, func(n string) bool {
			_, present := byLower[n]
			return present
		})
		if !ok {
			continue
		}
		s.set(entry.role, byLower[name])
	}
	return s
}

func (s *Schema) set(role Role, column string) {
	switch role {
	case RoleDate:
		s.Date = column
	case RoleHour:
		s.Hour = column
	case RoleConsumption:
		s.Consumption = column
	case RolePrice:
		s.Price = column
	case RoleCost:
		s.Cost = column
	}
}

// Column returns the resolved column for role, or "" when absent.
func (s Schema) Column(role Role) string {
	switch role {
	case RoleDate:
		return s.Date
	case RoleHour:
		return s.Hour
	case RoleConsumption:
		return s.Consumption
	case RolePrice:
		return s.Price
	case RoleCost:
		return s.Cost
	}
	return ""
}

// Has reports whether every listed role resolved.
func (s Schema) Has(roles ...Role) bool {
	return lo.EveryBy(roles, func(r Role) bool { return s.Column(r) != "" })
}

// ColumnsToDrop returns the noise columns: the lowercased name contains a drop keyword and no
// protected keyword.
func ColumnsToDrop(columns []string) []string {
	return lo.Filter(columns, func(col string, _ int) bool {
		lower := strings.ToLower(col)
		bad := lo.SomeBy(dropKeywords, func(k string) bool { return strings.Contains(lower, k) })
		good := lo.SomeBy(keepKeywords, func(k string) bool { return strings.Contains(lower, k) })
		return bad && !good
	})
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
