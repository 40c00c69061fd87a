package driver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maclenn77/ticha/config"
	"github.com/Maclenn77/ticha/models"
)

const fixtureTable = `<!DOCTYPE html>
<html>
<head><title>Handwritten Texts - Ticha, a digital text explorer</title></head>
<body>
<div class="container">
  <table id="myTable" class="display dataTable">
    <thead>
      <tr role="row">
        <th>Document Name</th><th>File Type</th><th>Ticha ID</th><th>Year</th>
        <th>Town</th><th>Archive</th><th>Document Type</th><th>Language</th>
        <th>Transcription Status</th><th>Legibility</th>
      </tr>
    </thead>
    <tbody>
      <tr role="row" class="odd">
        <td><a href="/en/texts/Te675/">Testamento de Juana Lopez</a></td>
        <td>PDF</td>
        <td>Te675</td>
        <td>1675</td>
        <td>San Jeronimo   Tlacochahuaya</td>
        <td>Archivo General del Poder Ejecutivo de Oaxaca</td>
        <td>Testament</td>
        <td>Zapotec</td>
        <td>Complete</td>
        <td>High</td>
      </tr>
      <tr role="row" class="even">
        <td>Memoria de Pedro Vasquez</td>
        <td>JPG</td>
        <td>Te700</td>
        <td>1700</td>
        <td>Oaxaca de Juarez</td>
        <td>Archivo Historico de Notarias</td>
        <td>Memoria</td>
        <td>Spanish</td>
        <td>Needs revision</td>
        <td>Low</td>
      </tr>
    </tbody>
  </table>
</div>
</body>
</html>`

func serveHTML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func openStatic(t *testing.T) Session {
	t.Helper()
	d := NewStatic(config.HTTPConfig{
		Timeout:     5 * time.Second,
		MaxBodySize: 1 << 20,
		UserAgent:   "ticha-test/1.0",
	}, config.ScrapeConfig{})

	s, err := d.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStaticSessionExtractsRows(t *testing.T) {
	srv := serveHTML(t, fixtureTable)
	s := openStatic(t)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, srv.URL))
	require.NoError(t, s.LocateTable(ctx))

	rows, err := s.ExtractRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2, "header row must not be extracted as data")

	first := rows[0]
	require.Len(t, first, models.NumFields)
	assert.Equal(t, "Testamento de Juana Lopez", first[0])
	assert.Equal(t, srv.URL+"/en/texts/Te675/", first[1],
		"relative href must resolve against the page URL")
	assert.Equal(t, "PDF", first[2])
	assert.Equal(t, "Te675", first[3])
	assert.Equal(t, "1675", first[4])
	assert.Equal(t, "San Jeronimo   Tlacochahuaya", first[5],
		"extraction must not normalize whitespace")
	assert.Equal(t, "High", first[10])

	second := rows[1]
	require.Len(t, second, models.NumFields)
	assert.Equal(t, "Memoria de Pedro Vasquez", second[0])
	assert.Empty(t, second[1], "cell without an anchor yields an empty link")
	assert.Equal(t, "Te700", second[3])
}

func TestStaticSessionPlainRows(t *testing.T) {
	// Server-rendered markup before DataTables adds role attributes.
	plain := `<html><body><table>
		<thead><tr><th>a</th><th>b</th></tr></thead>
		<tbody><tr>
			<td><a href="/en/texts/Te810/">Carta de venta</a></td>
			<td>PDF</td><td>Te810</td><td>1810</td><td>Mitla</td>
			<td>AGN</td><td>Bill of sale</td><td>Spanish</td>
			<td>Complete</td><td>Medium</td>
		</tr></tbody>
	</table></body></html>`

	srv := serveHTML(t, plain)
	s := openStatic(t)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, srv.URL))
	require.NoError(t, s.LocateTable(ctx))

	rows, err := s.ExtractRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Carta de venta", rows[0][0])
	assert.Equal(t, srv.URL+"/en/texts/Te810/", rows[0][1])
}

func TestStaticSessionEmptyTable(t *testing.T) {
	empty := `<html><body><table>
		<thead><tr><th>Document Name</th></tr></thead>
		<tbody><tr role="row">
			<td valign="top" colspan="10" class="dataTables_empty">No data available in table</td>
		</tr></tbody>
	</table></body></html>`

	srv := serveHTML(t, empty)
	s := openStatic(t)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, srv.URL))
	require.NoError(t, s.LocateTable(ctx))

	rows, err := s.ExtractRows(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows, "placeholder row must not become data")
}

func TestStaticSessionTableMissing(t *testing.T) {
	srv := serveHTML(t, `<html><body><p>Maintenance in progress</p></body></html>`)
	s := openStatic(t)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, srv.URL))

	err := s.LocateTable(ctx)
	require.Error(t, err)

	var serr *models.ScrapeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, models.ErrCodeTableNotFound, serr.Code)
}

func TestStaticSessionNavigateFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	s := openStatic(t)
	err := s.Navigate(context.Background(), srv.URL)
	require.Error(t, err)

	var serr *models.ScrapeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, models.ErrCodeNavigation, serr.Code)
}
