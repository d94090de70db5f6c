package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	GeneralAdmin    Department = "General & Administrative"
	SalesMarketing  Department = "Sales & Marketing"
	ResearchDevelop Department = "Research & Development"
	OperationsDept  Department = "Operations"
)

const (
	FullTime   EmploymentType = "Full-Time Employee (FTE)"
	PartTime   EmploymentType = "Part-Time"
	Contractor EmploymentType = "Contractor (1099)"
	Consultant EmploymentType = "Consultant"
)

const (
	StatusActive     MemberStatus = "Active"
	StatusProjected  MemberStatus = "Projected"
	StatusTerminated MemberStatus = "Terminated"
)

const (
	Monthly   Frequency = "Monthly"
	Quarterly Frequency = "Quarterly"
	Annual    Frequency = "Annual"
	OneTime   Frequency = "One-Time"
)

const (
	ProductBeta   ProductType = "Beta"
	ProductAlpha  ProductType = "Alpha"
	ProductGamma  ProductType = "Gamma"
	ProductCustom ProductType = "Custom"

	OrderInLine OrderType = "In-Line"
	OrderCustom OrderType = "Custom Order"
)

const (
	OriginBaseline Origin = "baseline"
	OriginCustom   Origin = "custom"
)

type (
	Department     string
	EmploymentType string
	MemberStatus   string
	Frequency      string
	ProductType    string
	OrderType      string

	// Origin tags whether a record ships with the baseline dataset or was added by a user.
	Origin string

	// Meta is carried by every stored record.
	Meta struct {
		ID        string    `json:"id" yaml:"id"`
		Origin    Origin    `json:"origin" yaml:"origin"`
		CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	}

	TeamMember struct {
		Meta            `yaml:",inline"`
		FirstName       string          `json:"first_name" yaml:"first_name"`
		LastName        string          `json:"last_name" yaml:"last_name"`
		Title           string          `json:"title" yaml:"title"`
		Department      Department      `json:"department" yaml:"department"`
		EmploymentType  EmploymentType  `json:"employment_type" yaml:"employment_type"`
		AnnualSalary    decimal.Decimal `json:"annual_salary" yaml:"annual_salary"`
		StartDate       Date            `json:"start_date" yaml:"start_date"`
		TerminationDate Date            `json:"termination_date" yaml:"termination_date"`
		Location        string          `json:"location" yaml:"location"`
		Status          MemberStatus    `json:"status" yaml:"status"`
		Notes           string          `json:"notes" yaml:"notes"`
	}

	OpexExpense struct {
		Meta          `yaml:",inline"`
		Name          string          `json:"expense_name" yaml:"expense_name"`
		Category      string          `json:"category" yaml:"category"`
		Vendor        string          `json:"vendor" yaml:"vendor"`
		Frequency     Frequency       `json:"frequency" yaml:"frequency"`
		MonthlyAmount decimal.Decimal `json:"monthly_amount" yaml:"monthly_amount"`
		AnnualCost    decimal.Decimal `json:"annual_cost" yaml:"annual_cost"`
		StartDate     Date            `json:"start_date" yaml:"start_date"`
		EndDate       Date            `json:"end_date" yaml:"end_date"`
		GrowthRate    decimal.Decimal `json:"growth_rate" yaml:"growth_rate"`
		Notes         string          `json:"notes" yaml:"notes"`
	}

	WholesaleDeal struct {
		Meta            `yaml:",inline"`
		CustomerName    string           `json:"customer_name" yaml:"customer_name"`
		ProductType     ProductType      `json:"product_type" yaml:"product_type"`
		OrderType       OrderType        `json:"order_type" yaml:"order_type"`
		NumPairs        int64            `json:"num_pairs" yaml:"num_pairs"`
		WholesalePrice  decimal.Decimal  `json:"wholesale_price" yaml:"wholesale_price"`
		CloseDate       Date             `json:"close_date" yaml:"close_date"`
		DeliveryDate    Date             `json:"delivery_date" yaml:"delivery_date"`
		SalesCommission decimal.Decimal  `json:"sales_commission" yaml:"sales_commission"`
		TotalCost       *decimal.Decimal `json:"total_cost,omitempty" yaml:"total_cost,omitempty"`
		Cogs            CogsRates        `json:"cogs_rates" yaml:"cogs_rates"`
		UnitsProduced   int64            `json:"units_produced" yaml:"units_produced"`
		Doors           int64            `json:"doors" yaml:"doors"`
		Notes           string           `json:"notes" yaml:"notes"`
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyName      = errors.New("empty name")
	ErrInvalidEnum    = errors.New("invalid enum value")
	ErrEndBeforeStart = errors.New("end date must not be before start date")
	ErrInvalidYear    = errors.New("invalid year")
	ErrInvalidRate    = errors.New("rate must be between 0 and 1")
	ErrInvalidOrigin  = errors.New("invalid origin")
)

func (d Department) IsValid() bool {
	switch d {
	case GeneralAdmin, SalesMarketing, ResearchDevelop, OperationsDept:
		return true
	}
	return false
}

func (e EmploymentType) IsValid() bool {
	switch e {
	case FullTime, PartTime, Contractor, Consultant:
		return true
	}
	return false
}

// Burdened reports whether employer payroll burden applies.
func (e EmploymentType) Burdened() bool {
	return e != Contractor
}

func (s MemberStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusProjected, StatusTerminated:
		return true
	}
	return false
}

func (f Frequency) IsValid() bool {
	switch f {
	case Monthly, Quarterly, Annual, OneTime:
		return true
	}
	return false
}

func (p ProductType) IsValid() bool {
	switch p {
	case ProductBeta, ProductAlpha, ProductGamma, ProductCustom:
		return true
	}
	return false
}

func (o OrderType) IsValid() bool {
	switch o {
	case OrderInLine, OrderCustom:
		return true
	}
	return false
}

func (o Origin) IsValid() bool {
	return o == OriginBaseline || o == OriginCustom
}

func (m Meta) IsBaseline() bool {
	return m.Origin == OriginBaseline
}

// RecordID is the storage identity of a record.
func (m Meta) RecordID() string {
	return m.ID
}

// Key is the natural key: full name and start date.
func (t TeamMember) Key() string {
	return fmt.Sprintf("%s %s (%s)", t.FirstName, t.LastName, t.StartDate)
}

func (t TeamMember) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

func (t TeamMember) Validate() error {
	if strings.TrimSpace(t.FirstName) == "" {
		return ErrEmptyName
	}
	if !t.Department.IsValid() {
		return fmt.Errorf("department %q: %w", t.Department, ErrInvalidEnum)
	}
	if !t.EmploymentType.IsValid() {
		return fmt.Errorf("employment type %q: %w", t.EmploymentType, ErrInvalidEnum)
	}
	if t.Status != "" && !t.Status.IsValid() {
		return fmt.Errorf("status %q: %w", t.Status, ErrInvalidEnum)
	}
	if t.AnnualSalary.IsNegative() {
		return ErrInvalidAmount
	}
	if err := t.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if !t.TerminationDate.IsEmpty() && t.TerminationDate.Before(t.StartDate.Time) {
		return ErrEndBeforeStart
	}
	return nil
}

// Key is the natural key: name and start date.
func (o OpexExpense) Key() string {
	return fmt.Sprintf("%s (%s)", o.Name, o.StartDate)
}

func (o OpexExpense) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return ErrEmptyName
	}
	if len(o.Name) > 200 {
		return errors.New("expense name too long (max 200 characters)")
	}
	if !o.Frequency.IsValid() {
		return fmt.Errorf("frequency %q: %w", o.Frequency, ErrInvalidEnum)
	}
	if o.MonthlyAmount.IsNegative() || o.AnnualCost.IsNegative() {
		return ErrInvalidAmount
	}
	if o.MonthlyAmount.IsZero() && o.AnnualCost.IsZero() {
		return ErrInvalidAmount
	}
	if !o.StartDate.IsEmpty() && !o.EndDate.IsEmpty() && o.EndDate.Before(o.StartDate.Time) {
		return ErrEndBeforeStart
	}
	return nil
}

// DeriveAnnualCost converts an amount entered at the given frequency into a yearly figure.
func DeriveAnnualCost(f Frequency, amount decimal.Decimal) decimal.Decimal {
	switch f {
	case Monthly:
		return amount.Mul(decimal.NewFromInt(12))
	case Quarterly:
		return amount.Mul(decimal.NewFromInt(4))
	default:
		return amount
	}
}

// Key is the natural key: customer and close date.
func (w WholesaleDeal) Key() string {
	return fmt.Sprintf("%s (%s)", w.CustomerName, w.CloseDate)
}

// RecognitionDate is the delivery date, falling back to the close date.
// A delivery date that was given but unreadable has no fallback.
func (w WholesaleDeal) RecognitionDate() (Date, bool) {
	if w.DeliveryDate.Unparsable() {
		return Date{}, false
	}
	if !w.DeliveryDate.IsEmpty() {
		return w.DeliveryDate, true
	}
	if !w.CloseDate.IsEmpty() {
		return w.CloseDate, true
	}
	return Date{}, false
}

func (w WholesaleDeal) Validate() error {
	if strings.TrimSpace(w.CustomerName) == "" {
		return ErrEmptyName
	}
	if w.ProductType != "" && !w.ProductType.IsValid() {
		return fmt.Errorf("product type %q: %w", w.ProductType, ErrInvalidEnum)
	}
	if w.OrderType != "" && !w.OrderType.IsValid() {
		return fmt.Errorf("order type %q: %w", w.OrderType, ErrInvalidEnum)
	}
	if w.NumPairs <= 0 {
		return fmt.Errorf("num pairs must be positive: %w", ErrInvalidAmount)
	}
	if w.WholesalePrice.IsNegative() {
		return ErrInvalidAmount
	}
	if w.TotalCost != nil && w.TotalCost.IsNegative() {
		return ErrInvalidAmount
	}
	if err := ValidateRate(w.SalesCommission); err != nil {
		return fmt.Errorf("sales commission: %w", err)
	}
	if err := w.Cogs.Validate(); err != nil {
		return err
	}
	if w.CloseDate.Unparsable() {
		return fmt.Errorf("close date: %w", ErrInvalidDate)
	}
	if w.DeliveryDate.Unparsable() {
		return fmt.Errorf("delivery date: %w", ErrInvalidDate)
	}
	if _, ok := w.RecognitionDate(); !ok {
		return fmt.Errorf("close or delivery date required: %w", ErrZeroDate)
	}
	if !w.CloseDate.IsEmpty() && !w.DeliveryDate.IsEmpty() && w.DeliveryDate.Before(w.CloseDate.Time) {
		return ErrEndBeforeStart
	}
	return nil
}

// ValidateRate accepts fractions in [0, 1].
func ValidateRate(r decimal.Decimal) error {
	if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidRate
	}
	return nil
}
