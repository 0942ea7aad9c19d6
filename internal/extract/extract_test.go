package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const detailPage = `
<html><body>
<div id="maincontent">
  <div class="detailSection corporationName">
    <p>Detail by Entity Name</p>
    <p>Florida Limited Liability Company</p>
    <p>SUNSHINE HARBOR VENTURES LLC</p>
  </div>
  <div class="detailSection filingInformation">
    <span>Filing Information</span>
    <div>
      <label>Document Number</label><span>L25000123456</span>
      <label>FEI/EIN Number</label><span>APPLIED FOR</span>
      <label>Date Filed</label><span>06/15/2025</span>
      <label>Effective Date</label><span>NONE</span>
      <label>State</label><span>FL</span>
      <label>Status</label><span>ACTIVE</span>
      <label>Last Event</label><span>LC AMENDMENT</span>
      <label>Event Date Filed</label><span>07/01/2025</span>
      <label>Event Effective Date</label><span>NONE</span>
    </div>
  </div>
  <div class="detailSection">
    <span>Principal Address</span>
    <div><span>801 HARBOR POINT DR</span><br><span>SUITE 210</span><br><span>TAMPA, FL 33602</span></div>
  </div>
  <div class="detailSection">
    <span>Mailing Address</span>
    <div><span>PO BOX 4410</span><br><span>TAMPA, FL 33677</span></div>
  </div>
  <div class="detailSection">
    <span>Registered Agent Name &amp; Address</span>
    <span>RIVERA, MARISOL</span>
    <div><span>801 HARBOR POINT DR</span><br><span>TAMPA, FL 33602</span></div>
  </div>
  <div class="detailSection">
    <span>Authorized Person(s) Detail</span>
    <span>Name &amp; Address</span>
    <span>Title MGR</span>
    <span>RIVERA, MARISOL</span>
    <div><span>801 HARBOR POINT DR</span><br><span>TAMPA, FL 33602</span></div>
    <span>Title AMBR</span>
    <span>CHEN, DAVID W</span>
    <div><span>90 BAYSHORE BLVD</span><br><span>TAMPA, FL 33606</span></div>
  </div>
  <div class="detailSection">
    <span>Annual Reports</span>
    <span>No Annual Reports Filed</span>
  </div>
  <div class="detailSection">
    <span>Document Images</span>
    <span>06/15/2025 -- Florida Limited Liability</span>
  </div>
</div>
</body></html>`

var crawlDay = time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

func TestRecordFullDetailPage(t *testing.T) {
	rec := New("FL").Record(detailPage, crawlDay)

	require.True(t, rec.FilingDateParsed)
	require.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), rec.FilingDate)
	require.Nil(t, rec.EffectiveDate, "NONE must map to absent")
	require.NotNil(t, rec.EventDateFiled)
	require.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), *rec.EventDateFiled)
	require.Nil(t, rec.EventEffectiveDate)

	require.Equal(t, "Florida Limited Liability Company", rec.EntityType)
	require.Equal(t, "APPLIED FOR", rec.FEIEIN)
	require.Equal(t, "LC AMENDMENT", rec.LastEvent)
	require.Equal(t, "ACTIVE", rec.Status)

	require.Equal(t, "801 HARBOR POINT DR, SUITE 210, TAMPA, FL 33602", rec.PrincipalAddress)
	require.Equal(t, "PO BOX 4410, TAMPA, FL 33677", rec.MailingAddress)
	require.Equal(t, "RIVERA, MARISOL", rec.RegisteredAgentName)
	require.Equal(t, "801 HARBOR POINT DR, TAMPA, FL 33602", rec.RegisteredAgentAddress)
	require.Equal(t, "Tampa", rec.City)
}

func TestRecordAuthorizedPersons(t *testing.T) {
	rec := New("FL").Record(detailPage, crawlDay)

	require.Len(t, rec.Officers, 2)
	require.Equal(t, "MGR", rec.Officers[0].Title)
	require.Equal(t, "RIVERA, MARISOL", rec.Officers[0].Name)
	require.Equal(t, "801 HARBOR POINT DR, TAMPA, FL 33602", rec.Officers[0].Address)
	require.Equal(t, "AMBR", rec.Officers[1].Title)
	require.Equal(t, "CHEN, DAVID W", rec.Officers[1].Name)
	require.Equal(t, "90 BAYSHORE BLVD, TAMPA, FL 33606", rec.Officers[1].Address)
}

func TestRecordOfficerSectionPreferred(t *testing.T) {
	page := `<html><body>
<p>Detail by Entity Name</p>
<p>Florida Profit Corporation</p>
<span>Officer/Director Detail</span>
<span>Name &amp; Address</span>
<span>Title PRES</span>
<span>OKAFOR, ADA</span>
<span>15 GRAND CENTRAL PKWY</span>
<span>ORLANDO, FL 32801</span>
<span>04/23/2025 -- ANNUAL REPORT</span>
<span>Document Images</span>
<span>Authorized Person(s) Detail</span>
<span>Title MGR</span>
<span>SHOULD NOT APPEAR</span>
</body></html>`
	rec := New("FL").Record(page, crawlDay)

	require.Len(t, rec.Officers, 1)
	require.Equal(t, "PRES", rec.Officers[0].Title)
	require.Equal(t, "OKAFOR, ADA", rec.Officers[0].Name)
	require.Equal(t, "15 GRAND CENTRAL PKWY, ORLANDO, FL 32801", rec.Officers[0].Address)
}

func TestRecordIsDeterministic(t *testing.T) {
	e := New("FL")
	first := e.Record(detailPage, crawlDay)
	second := e.Record(detailPage, crawlDay)
	require.Equal(t, first, second)
}

func TestRecordFilingDateFallback(t *testing.T) {
	rec := New("FL").Record(`<html><body><p>nothing useful here</p></body></html>`, crawlDay)
	require.False(t, rec.FilingDateParsed)
	require.Equal(t, crawlDay, rec.FilingDate)
	require.Empty(t, rec.EntityType)
	require.Nil(t, rec.Officers)
}

func TestRecordEffectiveDateParsed(t *testing.T) {
	page := `<html><body>
<label>Date Filed</label><span>02/03/2025</span>
<label>Effective Date</label><span>03/01/2025</span>
</body></html>`
	rec := New("FL").Record(page, crawlDay)
	require.NotNil(t, rec.EffectiveDate)
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *rec.EffectiveDate)
}

func TestEntityTypeFromLabelTruncated(t *testing.T) {
	page := `<html><body>
<p>Entity Type: Super Extended Professional Benefit Association Of Greater Palm Beach</p>
</body></html>`
	rec := New("FL").Record(page, crawlDay)
	require.Len(t, rec.EntityType, 50)
	require.Equal(t, "Super Extended Professional Benefit Association Of", rec.EntityType)
}

func TestEntityTypeExactFromHeading(t *testing.T) {
	page := `<html><body>
<p>Detail by Entity Name</p>
<p>Foreign Profit Corporation</p>
<p>GLOBAL TRADE PARTNERS INC</p>
</body></html>`
	rec := New("FL").Record(page, crawlDay)
	require.Equal(t, "Foreign Profit Corporation", rec.EntityType)
}

func TestCityFromConfiguredState(t *testing.T) {
	page := `<html><body>
<span>Principal Address</span>
<span>44 PEACH ST</span>
<span>ATLANTA, GA 30303</span>
</body></html>`
	rec := New("GA").Record(page, crawlDay)
	require.Equal(t, "Atlanta", rec.City)

	rec = New("FL").Record(page, crawlDay)
	require.Empty(t, rec.City)
}

func TestLines(t *testing.T) {
	lines := Lines(`<html><body>
<script>var hidden = "NOPE";</script>
<style>.x { color: red }</style>
<p>First
Second</p>
<div><span>  Third  </span></div>
</body></html>`)
	require.Equal(t, []string{"First", "Second", "Third"}, lines)
	for _, ln := range lines {
		require.False(t, strings.Contains(ln, "NOPE"))
	}
}

func TestLinesEmptyInput(t *testing.T) {
	require.Empty(t, Lines(""))
}
