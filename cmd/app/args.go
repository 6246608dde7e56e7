package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/datastore/entities"
)

// DateLayout is the date format accepted on the command line.
const DateLayout = time.DateOnly

// ParseDate parses a YYYY-MM-DD flag value as local midnight.
func ParseDate(flag, value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be a date in YYYY-MM-DD format, got %q", flag, value)
	}
	return t, nil
}

// ParseID parses a positive numeric id argument.
func ParseID(what, value string) (uint, error) {
	id, err := strconv.ParseUint(value, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, value)
	}
	return uint(id), nil
}

// ResolveTree looks a tree up by numeric id or by tree number, e.g. BON-004.
func ResolveTree(ctx context.Context, service *collection.Service, ref string) (*entities.Tree, error) {
	if id, err := strconv.ParseUint(ref, 10, 0); err == nil && id > 0 {
		return service.GetTree(ctx, uint(id))
	}
	return service.GetTreeByNumber(ctx, strings.ToUpper(strings.TrimSpace(ref)))
}

// FormatGirth renders an optional girth in centimetres.
func FormatGirth(girth *float64) string {
	if girth == nil {
		return "-"
	}
	return strconv.FormatFloat(*girth, 'f', 1, 64) + " cm"
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// OneLine collapses whitespace and shortens s for a table cell.
func OneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const maxLen = 60
	if r := []rune(s); len(r) > maxLen {
		return string(r[:maxLen-3]) + "..."
	}
	return s
}
