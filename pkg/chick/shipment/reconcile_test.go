package shipment

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chobyoungjae/chick/pkg/chick/models"
)

func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout()
	if l.Width() != 31 {
		t.Errorf("Width() = %d, expected 31", l.Width())
	}
	if l.StatusColumn() != 57 {
		t.Errorf("StatusColumn() = %d, expected 57 (BE)", l.StatusColumn())
	}
	if r := l.DataRegion(); r.Rows() != 192 || r.Cols() != 31 {
		t.Errorf("DataRegion() = %+v", r)
	}
	if l.InData(6) || !l.InData(7) || !l.InData(198) || l.InData(199) {
		t.Error("InData bounds wrong")
	}
}

func key(order, product, qty interface{}) models.Key {
	return models.Key{Order: models.Of(order), Product: models.Of(product), Quantity: models.Of(qty)}
}

func ledgerRow(row int, order, product, qty interface{}) models.LedgerRow {
	return models.LedgerRow{Row: row, Order: models.Of(order), Product: models.Of(product), Quantity: models.Of(qty)}
}

func TestMatchFirstOnly(t *testing.T) {
	ledger := []models.LedgerRow{
		ledgerRow(7, "Lee", "Widget", 5),
		ledgerRow(8, "Kim", "Widget", 5),
		ledgerRow(9, "Kim", "Widget", 5),
	}

	if got := Match(ledger, key("Kim", "Widget", 5)); got != 1 {
		t.Errorf("Match() = %d, expected 1", got)
	}
	if got := Match(ledger, key("Kim", "Widget", "5")); got != -1 {
		t.Errorf("text quantity matched ledger row %d", got)
	}
}

func TestMatchZeroNeverMatches(t *testing.T) {
	ledger := []models.LedgerRow{ledgerRow(7, "Kim", "Widget", 0)}

	if got := Match(ledger, key("Kim", "Widget", 0)); got != -1 {
		t.Errorf("zero quantity matched ledger row %d", got)
	}
	if got := Match(ledger, key("", "Widget", 0)); got != -1 {
		t.Errorf("blank order matched ledger row %d", got)
	}
}

func TestReconcile(t *testing.T) {
	snap := &Snapshot{
		FirstRow: 7,
		FirstCol: 4,
		Orders:   models.Row("Kim", "Lee"),
		Headers:  models.Row("Egg", "Milk"),
		Values: [][]models.Value{
			models.Row(5, 0),
			models.Row(2, 3),
		},
		Marks: [][]models.Mark{
			{models.MarkPending, models.MarkPending},
			{models.MarkNone, models.MarkCompleted},
		},
		Ledger: []models.LedgerRow{
			ledgerRow(7, "Kim", "Egg", 5),
			ledgerRow(8, "Kim", "Egg", 5),
			ledgerRow(9, "Kim", "Milk", 0),
			ledgerRow(10, "Lee", "Egg", 2),
			ledgerRow(11, "Lee", "Milk", 3),
		},
	}

	want := []models.Match{
		{Row: 7, Col: 4, Key: key("Kim", "Egg", 5), LedgerRow: 7},
		{Row: 8, Col: 5, Key: key("Lee", "Milk", 3), LedgerRow: 11},
	}
	if diff := cmp.Diff(want, Reconcile(snap)); diff != "" {
		t.Errorf("Reconcile mismatch (-want +got):\n%s", diff)
	}
	if got := len(Candidates(snap)); got != 3 {
		t.Errorf("Candidates() returned %d cells, expected 3", got)
	}
}

func TestClearTargets(t *testing.T) {
	headers := models.Row("Egg", "Milk", "Tofu")
	values := models.Row(5, "3", 0)

	keys := ClearCandidates(models.String("Kim"), headers, values)
	if diff := cmp.Diff([]models.Key{key("Kim", "Egg", 5)}, keys); diff != "" {
		t.Errorf("ClearCandidates mismatch (-want +got):\n%s", diff)
	}

	ledger := []models.LedgerRow{
		ledgerRow(9, "Kim", "Egg", 5),
		ledgerRow(7, "Kim", "Egg", 5),
		ledgerRow(8, "Kim", "Milk", 3),
	}
	if diff := cmp.Diff([]int{7, 9}, ClearTargets(ledger, keys)); diff != "" {
		t.Errorf("ClearTargets mismatch (-want +got):\n%s", diff)
	}
}

func TestHighlightMarks(t *testing.T) {
	got := HighlightMarks(models.Row(3, 0, "2", nil, -1, 0.5))
	want := []models.Mark{models.MarkPending, models.MarkNone, models.MarkNone, models.MarkNone, models.MarkNone, models.MarkPending}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HighlightMarks mismatch (-want +got):\n%s", diff)
	}
}
