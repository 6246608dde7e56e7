//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// TimeDateOnlyConstants reports magic layouts for the date formats used by
// tree, update, photo and reminder dates.
//
//	t.Format("2006-01-02")  ->  t.Format(time.DateOnly)
func TimeDateOnlyConstants(m dsl.Matcher) {
	m.Match(`$t.Format("2006-01-02")`).
		Report(`use $t.Format(time.DateOnly) instead of a magic layout`).
		Suggest(`$t.Format(time.DateOnly)`)

	m.Match(`time.Parse("2006-01-02", $s)`).
		Report(`use time.Parse(time.DateOnly, $s) instead of a magic layout`).
		Suggest(`time.Parse(time.DateOnly, $s)`)

	m.Match(`time.ParseInLocation("2006-01-02", $s, $loc)`).
		Report(`use time.ParseInLocation(time.DateOnly, $s, $loc) instead of a magic layout`).
		Suggest(`time.ParseInLocation(time.DateOnly, $s, $loc)`)

	m.Match(`$t.Format("2006-01-02 15:04:05")`).
		Report(`use $t.Format(time.DateTime) instead of a magic layout`).
		Suggest(`$t.Format(time.DateTime)`)
}
