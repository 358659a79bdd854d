package loader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registrationsJSON = `[
  {"createdAt": "2024-01-15T10:30:00Z", "cohort": "C1", "course": "Math", "paidPrice": 100, "paymentCurrency": "€"},
  {"createdAt": "2024-01-16T09:00:00Z", "cohort": "C1", "course": "Physics", "paidPrice": 50.25, "paymentCurrency": "€"}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileLoaderJSONArray(t *testing.T) {
	l := NewFileLoader(writeFile(t, "regs.json", registrationsJSON))

	records, err := l.Load(context.Background(), "CourseRegistration")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Math", records[0]["course"])
	assert.Equal(t, json.Number("50.25"), records[1]["paidPrice"])
}

func TestFileLoaderCollectionKeyedExport(t *testing.T) {
	content := `{"CourseRegistration": {
	  "b-doc": {"course": "Physics"},
	  "a-doc": {"course": "Math", "id": "explicit"}
	}}`
	l := NewFileLoader(writeFile(t, "export.json", content))

	records, err := l.Load(context.Background(), "CourseRegistration")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "explicit", records[0]["id"])
	assert.Equal(t, "b-doc", records[1]["id"])
}

func TestFileLoaderSingleObject(t *testing.T) {
	l := NewFileLoader(writeFile(t, "one.json", `{"course": "Math"}`))

	records, err := l.Load(context.Background(), "CourseRegistration")
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestFileLoaderCSV(t *testing.T) {
	content := "\"createdAt\",cohort,course,paidPrice,paymentCurrency,userIp\n" +
		"2024-01-15T10:30:00Z,07,Math,100,€,\n"
	l := NewFileLoader(writeFile(t, "regs.csv", content))

	records, err := l.Load(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "07", rec["cohort"])
	assert.Equal(t, "100", rec["paidPrice"])
	_, hasIP := rec["userIp"]
	assert.False(t, hasIP, "empty cells are absent")
}

func TestFileLoaderEmptyCSV(t *testing.T) {
	l := NewFileLoader(writeFile(t, "empty.csv", ""))

	records, err := l.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileLoaderMissingFile(t *testing.T) {
	l := NewFileLoader(filepath.Join(t.TempDir(), "nope.json"))

	_, err := l.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileLoaderInvalidJSON(t *testing.T) {
	l := NewFileLoader(writeFile(t, "bad.json", `[1, 2]`))

	_, err := l.Load(context.Background(), "")
	assert.Error(t, err)
}

func TestFileLoaderHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/regs":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(registrationsJSON))
		case "/regs.csv":
			w.Header().Set("Content-Type", "text/csv")
			w.Write([]byte("course\nMath\n"))
		case "/down":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	records, err := NewFileLoader(srv.URL+"/regs").Load(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = NewFileLoader(srv.URL+"/regs.csv").Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Math", records[0]["course"])

	_, err = NewFileLoader(srv.URL+"/missing").Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewFileLoader(srv.URL+"/down").Load(context.Background(), "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
