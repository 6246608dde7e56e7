//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// GormPlaceholders reports SQL built with fmt.Sprintf. Values go through
// placeholders so gorm escapes them for both SQLite and MySQL.
//
//	db.Where(fmt.Sprintf("tree_name = '%s'", name))  ->  db.Where("tree_name = ?", name)
func GormPlaceholders(m dsl.Matcher) {
	m.Import(`gorm.io/gorm`)

	m.Match(
		`$db.Where(fmt.Sprintf($*_), $*_)`,
		`$db.Or(fmt.Sprintf($*_), $*_)`,
		`$db.Raw(fmt.Sprintf($*_), $*_)`,
		`$db.Exec(fmt.Sprintf($*_), $*_)`,
		`$db.Order(fmt.Sprintf($*_))`,
	).
		Where(m["db"].Type.Is(`*gorm.DB`)).
		Report(`build SQL with ? placeholders instead of fmt.Sprintf`)
}
