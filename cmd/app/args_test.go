package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/testutil"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	got, err := ParseDate("acquired", " 2024-03-15 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local), got)

	_, err = ParseDate("acquired", "15.3.2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--acquired")
}

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    uint
		wantErr bool
	}{
		{in: "42", want: 42},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "BON-001", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseID("photo", tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatting(t *testing.T) {
	t.Parallel()

	girth := 7.26
	assert.Equal(t, "-", FormatGirth(nil))
	assert.Equal(t, "7.3 cm", FormatGirth(&girth))
	assert.Equal(t, "a b", OneLine("a\n\n  b"))
	assert.Len(t, []rune(OneLine(string(bytes.Repeat([]byte("x"), 100)))), 60)

	var buf bytes.Buffer
	table := NewTable(&buf, "ID", "NAME")
	table.Row("1", "Juniper")
	require.NoError(t, table.Flush())
	assert.Equal(t, "ID  NAME\n1   Juniper\n", buf.String())
}

func TestResolveTree(t *testing.T) {
	t.Parallel()

	settings := testutil.Settings(t)
	a, err := Open(settings)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx := context.Background()
	created, err := a.Service.CreateTree(ctx, collection.TreeInput{
		TreeName:     "Trident",
		Species:      "Acer buergerianum",
		DateAcquired: time.Date(2020, 5, 1, 0, 0, 0, 0, time.Local),
		OriginDate:   time.Date(2015, 1, 1, 0, 0, 0, 0, time.Local),
	})
	require.NoError(t, err)

	for _, ref := range []string{"1", created.TreeNumber, "bon-001"} {
		tree, err := ResolveTree(ctx, a.Service, ref)
		require.NoError(t, err, ref)
		assert.Equal(t, created.ID, tree.ID)
	}

	_, err = ResolveTree(ctx, a.Service, "BON-999")
	assert.True(t, errors.IsNotFound(err))
}

func TestOpenUploads(t *testing.T) {
	t.Parallel()

	_, _, err := OpenUploads([]string{"/does/not/exist.jpg"})
	require.Error(t, err)

	uploads, closeAll, err := OpenUploads(nil)
	require.NoError(t, err)
	assert.Empty(t, uploads)
	closeAll()
}
