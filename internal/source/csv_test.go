package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_Basic(t *testing.T) {
	in := strings.NewReader(
		"Nume medic de familie,Adresa punct de lucru\n" +
			"Dr. Popescu,\"Str. Exemplu 12, Sector 3\"\n" +
			"Dr. Ionescu,\"Bd. Unirii, nr 5\"\n")

	table, err := ReadCSV(in, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Nume medic de familie", "Adresa punct de lucru"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 2, table.Rows[0].Line)
	assert.Equal(t, []string{"Dr. Popescu", "Str. Exemplu 12, Sector 3"}, table.Rows[0].Cells)
	assert.Equal(t, 3, table.Rows[1].Line)
	assert.Equal(t, []string{"Dr. Ionescu", "Bd. Unirii, nr 5"}, table.Rows[1].Cells)
}

func TestReadCSV_PreservesFileOrder(t *testing.T) {
	in := strings.NewReader("title,address\nc,1\na,2\nb,3\n")

	table, err := ReadCSV(in, Options{})
	require.NoError(t, err)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, "c", table.Rows[0].Cells[0])
	assert.Equal(t, "a", table.Rows[1].Cells[0])
	assert.Equal(t, "b", table.Rows[2].Cells[0])
}

func TestReadCSV_MalformedRowAborts(t *testing.T) {
	in := strings.NewReader("title,address\nDr. Popescu,Str. Exemplu 12\nDr. Ionescu\n")

	_, err := ReadCSV(in, Options{})
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 3, parseErr.Line)
	assert.Equal(t, 2, parseErr.Want)
	assert.Equal(t, 1, parseErr.Got)
	assert.Contains(t, parseErr.Error(), "row 3")
}

func TestReadCSV_SkipsEmptyRows(t *testing.T) {
	in := strings.NewReader("title,address\n,\nDr. Popescu,Str. Exemplu 12\n")

	table, err := ReadCSV(in, Options{})
	require.NoError(t, err)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, 3, table.Rows[0].Line)
}

func TestReadCSV_TrimsFields(t *testing.T) {
	in := strings.NewReader("title,address\n  Dr. Popescu , Str. Exemplu 12 \n")

	table, err := ReadCSV(in, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dr. Popescu", "Str. Exemplu 12"}, table.Rows[0].Cells)
}

func TestReadCSV_CustomDelimiter(t *testing.T) {
	in := strings.NewReader("title;address\na;b\n")

	table, err := ReadCSV(in, Options{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "address"}, table.Header)
	assert.Equal(t, []string{"a", "b"}, table.Rows[0].Cells)
}

func TestReadCSV_NoHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header")
}

func TestColumnIndex(t *testing.T) {
	table := &Table{Header: []string{"Nume medic de familie", " Adresa punct de lucru "}}

	idx, err := table.ColumnIndex("nume medic de familie")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = table.ColumnIndex("Adresa punct de lucru")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = table.ColumnIndex("Telefon")
	require.Error(t, err)
}

func TestRead_UnsupportedExtension(t *testing.T) {
	_, err := Read("input.pdf", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}
