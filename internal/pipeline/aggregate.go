package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"registration-analytics/internal/model"
)

// groupKey holds the values of up to two grouping fields
type groupKey [2]string

// group accumulates one distinct key combination
type group struct {
	values []string
	count  int
	sums   []decimal.Decimal
}

// GroupAndCount partitions records by one or two categorical fields and
// counts each partition. Rows follow first-seen order; empty partitions are
// never emitted.
func GroupAndCount(records []model.DerivedRecord, keys ...string) (model.Table, error) {
	if err := checkKeys(keys); err != nil {
		return model.Table{}, err
	}

	groups, order, err := partition(records, keys, nil)
	if err != nil {
		return model.Table{}, err
	}

	table := model.Table{
		Columns: append(append([]string{}, keys...), model.ColumnCount),
		Rows:    make([]model.Row, 0, len(order)),
	}
	for _, k := range order {
		g := groups[k]
		row := make(model.Row, len(keys)+1)
		for i, key := range keys {
			row[key] = g.values[i]
		}
		row[model.ColumnCount] = g.count
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// GroupAndSum partitions records by one categorical field and totals each of
// sumFields per partition using exact decimal addition.
func GroupAndSum(records []model.DerivedRecord, key string, sumFields ...string) (model.Table, error) {
	if err := checkKeys([]string{key}); err != nil {
		return model.Table{}, err
	}
	if len(sumFields) == 0 {
		return model.Table{}, fmt.Errorf("%w: no fields to sum", ErrUnknownField)
	}
	for _, f := range sumFields {
		if !model.IsAmount(f) {
			return model.Table{}, fmt.Errorf("%w: %s cannot be summed", ErrUnknownField, f)
		}
	}

	groups, order, err := partition(records, []string{key}, sumFields)
	if err != nil {
		return model.Table{}, err
	}

	table := model.Table{
		Columns: append([]string{key}, sumFields...),
		Rows:    make([]model.Row, 0, len(order)),
	}
	for _, k := range order {
		g := groups[k]
		row := make(model.Row, len(sumFields)+1)
		row[key] = g.values[0]
		for i, f := range sumFields {
			row[f] = g.sums[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func checkKeys(keys []string) error {
	if len(keys) == 0 || len(keys) > 2 {
		return fmt.Errorf("%w: expected 1 or 2 group keys, got %d", ErrUnknownField, len(keys))
	}
	for _, k := range keys {
		if !model.IsCategorical(k) {
			return fmt.Errorf("%w: %s cannot be grouped on", ErrUnknownField, k)
		}
	}
	return nil
}

// partition walks records once, returning the groups and their first-seen order
func partition(records []model.DerivedRecord, keys, sumFields []string) (map[groupKey]*group, []groupKey, error) {
	groups := make(map[groupKey]*group)
	order := make([]groupKey, 0)

	for i, rec := range records {
		var k groupKey
		for j, key := range keys {
			v, ok := rec.Value(key)
			if !ok {
				return nil, nil, recordError(i, rec.ID, key, ErrMissingField)
			}
			k[j] = v
		}

		g, exists := groups[k]
		if !exists {
			g = &group{
				values: append([]string{}, k[:len(keys)]...),
				sums:   make([]decimal.Decimal, len(sumFields)),
			}
			groups[k] = g
			order = append(order, k)
		}
		g.count++

		for j, f := range sumFields {
			amt, ok := rec.Amount(f)
			if !ok {
				return nil, nil, recordError(i, rec.ID, f, ErrMissingField)
			}
			g.sums[j] = g.sums[j].Add(amt)
		}
	}
	return groups, order, nil
}

// FilterByCohort returns the records whose cohort equals cohort, in input
// order. A cohort with no records yields an empty, non-nil slice.
func FilterByCohort(records []model.DerivedRecord, cohort string) []model.DerivedRecord {
	out := make([]model.DerivedRecord, 0)
	for _, rec := range records {
		if rec.Cohort == cohort {
			out = append(out, rec)
		}
	}
	return out
}

// Distinct returns the distinct values of a categorical field in first-seen order
func Distinct(records []model.DerivedRecord, field string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, rec := range records {
		v, ok := rec.Value(field)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// SortTable returns a copy of table with rows stably ordered by column
func SortTable(table model.Table, column string, ascending bool) (model.Table, error) {
	found := false
	for _, c := range table.Columns {
		if c == column {
			found = true
			break
		}
	}
	if !found {
		return model.Table{}, fmt.Errorf("%w: table %s has no column %s", ErrUnknownField, table.Name, column)
	}

	rows := make([]model.Row, len(table.Rows))
	copy(rows, table.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareValues(rows[i][column], rows[j][column])
		if ascending {
			return c < 0
		}
		return c > 0
	})

	sorted := table
	sorted.Columns = append([]string{}, table.Columns...)
	sorted.Rows = rows
	return sorted, nil
}

func compareValues(a, b interface{}) int {
	switch av := a.(type) {
	case int:
		if bv, ok := b.(int); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case decimal.Decimal:
		if bv, ok := b.(decimal.Decimal); ok {
			return av.Cmp(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}
