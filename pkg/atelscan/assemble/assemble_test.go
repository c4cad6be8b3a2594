package assemble

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrocat/atelscan/pkg/atelscan/alias"
	"github.com/astrocat/atelscan/pkg/atelscan/internalerr"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestAssemble(t *testing.T) {
	page := loadFixture(t, "atel1000.html")
	snap := alias.NewSnapshot([]alias.Alias{
		{Name: "GX339-4", ObjectID: "GX 339-4"},
		{Name: "V4641 Sgr", ObjectID: "SAX J1819.3-2525"},
	})

	rep, err := New(nil).Assemble(1000, page, snap)
	require.NoError(t, err)

	assert.Equal(t, 1000, rep.ID)
	assert.Equal(t, "INTEGRAL observations of GX339-4: preliminary spectral fit results", rep.Title)
	assert.Equal(t, "M. D. Caballero Garcia (LAEFF/INTA), J. Miller (Univ. of Michigan)", rep.Authors)
	assert.Equal(t, time.Date(2007, 2, 11, 9, 48, 0, 0, time.UTC), rep.SubmissionTime.UTC())

	assert.Contains(t, rep.Body, "GX339-4 was observed by INTEGRAL")
	assert.Contains(t, rep.Body, "black hole candidate.")
	assert.NotContains(t, rep.Body, "Referred to by")
	assert.NotContains(t, rep.Body, "Credential Certification")

	assert.Equal(t, []int{438}, rep.ReferencedReports)
	assert.Equal(t, []int{1001}, rep.ReferencedBy)

	assert.Equal(t, []time.Time{
		time.Date(2007, 2, 3, 17, 53, 0, 0, time.UTC),
		time.Date(2007, 2, 5, 8, 22, 0, 0, time.UTC),
	}, rep.ObservationDates)

	assert.Equal(t, []string{"x-ray", "binary", "black hole", "transient"}, rep.Keywords)
	assert.Equal(t, []string{"gx 339-4"}, rep.Objects)
	assert.Empty(t, rep.Coordinates)
}

func TestAssembleIsDeterministic(t *testing.T) {
	page := loadFixture(t, "atel1000.html")
	snap := alias.NewSnapshot(nil)
	asm := New(nil)

	first, err := asm.Assemble(1000, page, snap)
	require.NoError(t, err)
	second, err := asm.Assemble(1000, page, snap)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAssembleDropsSelfReference(t *testing.T) {
	doc := `<html><body><div id="telegram">` +
		`<h1 class="title">T</h1><strong>A. Observer</strong><strong>11 Feb 2007; 09:48 UT</strong>` +
		`<p>See <a href="https://www.astronomerstelegram.org/?read=42">this very report</a> and ` +
		`<a href="https://www.astronomerstelegram.org/?read=438">ATel #438</a>.</p>` +
		`</div></body></html>`

	rep, err := New(nil).Assemble(42, doc, alias.NewSnapshot(nil))
	require.NoError(t, err)
	assert.Equal(t, []int{438}, rep.ReferencedReports)
}

func TestAssembleInvalidID(t *testing.T) {
	_, err := New(nil).Assemble(0, "<html></html>", alias.NewSnapshot(nil))
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestAssembleMalformedSubmissionDate(t *testing.T) {
	doc := `<html><body>` +
		`<h1 class="title">T</h1><strong>A. Observer</strong><strong>sometime in 2007</strong>` +
		`</body></html>`

	_, err := New(nil).Assemble(7, doc, alias.NewSnapshot(nil))
	require.Error(t, err)
	var me *internalerr.MissingElementError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "submission date", me.Element)
}

func TestAssembleMissingTitle(t *testing.T) {
	_, err := New(nil).Assemble(7, `<html><body><p>no anchors here</p></body></html>`, alias.NewSnapshot(nil))
	assert.True(t, internalerr.IsMissingElement(err))
}
