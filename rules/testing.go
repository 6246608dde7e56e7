//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// TestingTempDir flags manual temp directories in tests. t.TempDir is removed
// automatically, so a failing test does not leave database files or photo
// copies behind.
func TestingTempDir(m dsl.Matcher) {
	m.Match(`os.MkdirTemp($*_)`, `ioutil.TempDir($*_)`).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("use t.TempDir() in tests instead of $$")
}

// BenchmarkLoop detects the old benchmark iteration pattern and suggests b.Loop().
func BenchmarkLoop(m dsl.Matcher) {
	m.Match(`for range $b.N { $*body }`).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for range $b.N").
		Suggest("for $b.Loop() { $body }")

	// $i may be used in the body, no suggestion
	m.Match(`for $i := 0; $i < $b.N; $i++ { $*body }`, `for $i := range $b.N { $*body }`).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } and declare $i separately if the body needs it")
}
