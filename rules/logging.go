//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// ModuleLogger reports printing from internal packages. Library code logs
// through its module logger, GetLogger(), so output honours the configured
// levels and file routing. Commands under cmd/ may print to the terminal.
func ModuleLogger(m dsl.Matcher) {
	m.Match(
		`log.Printf($*_)`,
		`log.Println($*_)`,
		`log.Print($*_)`,
		`fmt.Printf($*_)`,
		`fmt.Println($*_)`,
		`fmt.Print($*_)`,
	).
		Where(m.File().PkgPath.Matches(`/internal/`) && !m.File().Name.Matches(`_test\.go$`)).
		Report(`log through the package GetLogger() instead of printing`)

	m.Match(`log.Fatal($*_)`, `log.Fatalf($*_)`).
		Where(m.File().PkgPath.Matches(`/internal/`)).
		Report(`return an error instead of exiting from library code`)
}
