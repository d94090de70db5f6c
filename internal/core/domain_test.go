package core

import (
	"errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2026, 1, 1), true},
		{NewDate(2026, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2026-03-15", NewDate(2026, 3, 15), true},
		{"2026-01-01T00:00:00", NewDate(2026, 1, 1), true},
		{"2026-05-01 09:30:00", NewDate(2026, 5, 1), true},
		{"03/01/2026", NewDate(2026, 3, 1), true},
		{" 2026-08-15 ", NewDate(2026, 8, 15), true},
		{"", Date{}, false},
		{"next tuesday", Date{}, false},
		{"2026-13-01", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(tc.want.Time) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestDateJSONLenient(t *testing.T) {
	var d Date
	if err := d.UnmarshalJSON([]byte(`"garbage"`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.IsEmpty() || !d.Unparsable() {
		t.Fatalf("expected empty unparsable date for garbage, got %s", d)
	}
	if err := d.UnmarshalJSON([]byte(`""`)); err != nil || d.Unparsable() {
		t.Fatalf("empty string is unset, not unparsable: %v", err)
	}
	if err := d.UnmarshalJSON([]byte(`"2026-02-28"`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Month() != 2 || d.Year() != 2026 || d.Unparsable() {
		t.Fatalf("unexpected date %s", d)
	}
	b, _ := Date{}.MarshalJSON()
	if string(b) != "null" {
		t.Fatalf("zero date should marshal to null, got %s", b)
	}
}

func TestTeamMemberValidate(t *testing.T) {
	good := TeamMember{
		FirstName:      "Ryan",
		LastName:       "Person",
		Department:     GeneralAdmin,
		EmploymentType: FullTime,
		AnnualSalary:   decimal.NewFromInt(48000),
		StartDate:      NewDate(2026, 1, 1),
		Status:         StatusActive,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*TeamMember)
		want   error
	}{
		{"empty first name", func(m *TeamMember) { m.FirstName = " " }, ErrEmptyName},
		{"bad department", func(m *TeamMember) { m.Department = "Legal" }, ErrInvalidEnum},
		{"bad employment type", func(m *TeamMember) { m.EmploymentType = "Intern" }, ErrInvalidEnum},
		{"negative salary", func(m *TeamMember) { m.AnnualSalary = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{"missing start", func(m *TeamMember) { m.StartDate = Date{} }, ErrZeroDate},
		{"termination before start", func(m *TeamMember) { m.TerminationDate = NewDate(2025, 12, 31) }, ErrEndBeforeStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := good
			tt.mutate(&m)
			if err := m.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestOpexExpenseValidate(t *testing.T) {
	good := OpexExpense{
		Name:          "Shopify",
		Frequency:     Monthly,
		MonthlyAmount: decimal.NewFromInt(2850),
		StartDate:     NewDate(2026, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []OpexExpense{
		{Name: "", Frequency: Monthly, MonthlyAmount: decimal.NewFromInt(1)},
		{Name: "x", Frequency: "Weekly", MonthlyAmount: decimal.NewFromInt(1)},
		{Name: "x", Frequency: Monthly},
		{Name: "x", Frequency: Monthly, MonthlyAmount: decimal.NewFromInt(-5)},
		{Name: "x", Frequency: Monthly, MonthlyAmount: decimal.NewFromInt(1), StartDate: NewDate(2026, 3, 1), EndDate: NewDate(2026, 2, 1)},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDeriveAnnualCost(t *testing.T) {
	amount := decimal.NewFromInt(100)
	cases := map[Frequency]int64{
		Monthly:   1200,
		Quarterly: 400,
		Annual:    100,
		OneTime:   100,
	}
	for f, want := range cases {
		if got := DeriveAnnualCost(f, amount); !got.Equal(decimal.NewFromInt(want)) {
			t.Fatalf("%s: expected %d, got %s", f, want, got)
		}
	}
}

func TestWholesaleDealValidate(t *testing.T) {
	good := WholesaleDeal{
		CustomerName:   "Total WS Spring 26",
		ProductType:    ProductBeta,
		OrderType:      OrderInLine,
		NumPairs:       500,
		WholesalePrice: decimal.NewFromInt(144),
		CloseDate:      NewDate(2026, 3, 1),
		DeliveryDate:   NewDate(2026, 3, 15),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noPairs := good
	noPairs.NumPairs = 0
	if err := noPairs.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	noDates := good
	noDates.CloseDate, noDates.DeliveryDate = Date{}, Date{}
	if err := noDates.Validate(); !errors.Is(err, ErrZeroDate) {
		t.Fatalf("expected ErrZeroDate, got %v", err)
	}

	var badDelivery WholesaleDeal
	if err := json.Unmarshal([]byte(`{"customer_name":"Shop","num_pairs":10,"close_date":"2026-03-01","delivery_date":"mid april"}`), &badDelivery); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := badDelivery.Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, ok := badDelivery.RecognitionDate(); ok {
		t.Fatalf("an unreadable delivery date must not fall back to the close date")
	}

	badRate := good
	r := decimal.RequireFromString("1.5")
	badRate.Cogs.Freight = &r
	if err := badRate.Validate(); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}

func TestRecognitionDate(t *testing.T) {
	d := WholesaleDeal{CloseDate: NewDate(2026, 3, 1)}
	got, ok := d.RecognitionDate()
	if !ok || got.Month() != 3 {
		t.Fatalf("expected fallback to close date, got %s ok=%v", got, ok)
	}
	d.DeliveryDate = NewDate(2026, 4, 2)
	got, _ = d.RecognitionDate()
	if got.Month() != 4 {
		t.Fatalf("expected delivery date, got %s", got)
	}
	if _, ok := (WholesaleDeal{}).RecognitionDate(); ok {
		t.Fatalf("expected no recognition date")
	}
}
