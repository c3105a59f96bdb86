package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
)

func TestFileArchive_RoundTrip(t *testing.T) {
	ctx := context.Background()
	archive, err := NewFileArchive(t.TempDir())
	require.NoError(t, err)

	data := []byte("Data,Base\n01/03/2025,GOIÂNIA\n")
	hash, err := archive.Put(ctx, data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "sha256:"))

	again, err := archive.Put(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, hash, again, "content addressed")

	ok, err := archive.Exists(ctx, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := archive.Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	missing, _ := contentHash([]byte("other"))
	_, err = archive.Get(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err = archive.Exists(ctx, missing)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseHash_RejectsTraversal(t *testing.T) {
	for _, h := range []string{"", "md5:abc", "sha256:../../etc/passwd", "sha256:zz" + strings.Repeat("0", 62)} {
		_, err := parseHash(h)
		assert.Error(t, err, h)
	}
}

func TestNewArchive(t *testing.T) {
	ctx := context.Background()

	a, err := NewArchive(ctx, ArchiveConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileArchive{}, a)

	_, err = NewArchive(ctx, ArchiveConfig{Type: StorageS3})
	assert.ErrorContains(t, err, "EXPORT_BUCKET")

	_, err = NewArchive(ctx, ArchiveConfig{Type: StorageGCS})
	assert.ErrorContains(t, err, "EXPORT_BUCKET")

	_, err = NewArchive(ctx, ArchiveConfig{Type: "ftp"})
	assert.ErrorContains(t, err, "unsupported")
}

func TestWriteCSV(t *testing.T) {
	subs := []store.Submission{
		{
			BaseID:        "base-goiania",
			TeamID:        "team-alfa",
			Kind:          "controle_trocas",
			ReferenceDate: "2025-03-07",
			Payload:       json.RawMessage(`{"qtd_trocas":2}`),
		},
		{
			BaseID:        "base-x",
			TeamID:        "team-bravo",
			Kind:          "controle_trocas",
			ReferenceDate: "bad",
			Payload:       json.RawMessage(`{"qtd_trocas":1}`),
		},
	}
	rows := Rows(subs, catalog.Default(),
		map[string]string{"base-goiania": "GOIÂNIA"},
		map[string]string{"team-alfa": "Alfa", "team-bravo": "Bravo"},
	)
	require.Len(t, rows, 2)
	assert.Equal(t, "07/03/2025", rows[0].Date)
	assert.Equal(t, "GOIÂNIA", rows[0].Base)
	assert.Equal(t, "Controle de Trocas", rows[0].Indicator)
	assert.Equal(t, "2 trocas", rows[0].Summary)
	assert.Equal(t, "bad", rows[1].Date)
	assert.Equal(t, "base-x", rows[1].Base)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeff"))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, `{"qtd_trocas":2}`, records[1][5])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "lancamentos_05032025.csv", Filename("lancamentos", calendar.MustParse("2025-03-05")))
	assert.Equal(t, "relatorio_31122024.csv", Filename("", calendar.MustParse("2024-12-31")))
}
