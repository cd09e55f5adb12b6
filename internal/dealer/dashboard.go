package dealer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dealerops/dealerctl/internal/format"
	"github.com/dealerops/dealerctl/internal/store"
)

// Dashboard holds the KPIs shown on the landing screen. Voucher totals cover
// the active financial year only and are zero when no year is active.
type Dashboard struct {
	VehiclesInStock       int     `json:"vehicles_in_stock"       yaml:"vehicles_in_stock"`
	VehiclesBooked        int     `json:"vehicles_booked"         yaml:"vehicles_booked"`
	VehiclesSold          int     `json:"vehicles_sold"           yaml:"vehicles_sold"`
	StockValue            float64 `json:"stock_value"             yaml:"stock_value"`
	PendingPurchaseOrders int     `json:"pending_purchase_orders" yaml:"pending_purchase_orders"`
	PendingLeaveRequests  int     `json:"pending_leave_requests"  yaml:"pending_leave_requests"`
	ActiveEmployees       int     `json:"active_employees"        yaml:"active_employees"`
	Suppliers             int     `json:"suppliers"               yaml:"suppliers"`
	FinancialYear         string  `json:"financial_year"          yaml:"financial_year"`
	FinancialYearStart    string  `json:"financial_year_start"    yaml:"financial_year_start"`
	FinancialYearEnd      string  `json:"financial_year_end"      yaml:"financial_year_end"`
	Receipts              float64 `json:"receipts"                yaml:"receipts"`
	Payments              float64 `json:"payments"                yaml:"payments"`
}

// Card is one formatted KPI.
type Card struct {
	Label string
	Value string
	Hint  string
}

func (d Dashboard) Cards() []Card {
	fy := d.FinancialYear
	fyHint := "no active year"
	if fy == "" {
		fy = "None"
	} else {
		fyHint = format.Date(d.FinancialYearStart) + " to " + format.Date(d.FinancialYearEnd)
	}
	return []Card{
		{Label: "In Stock", Value: strconv.Itoa(d.VehiclesInStock), Hint: "vehicles"},
		{Label: "Booked", Value: strconv.Itoa(d.VehiclesBooked), Hint: "vehicles"},
		{Label: "Sold", Value: strconv.Itoa(d.VehiclesSold), Hint: "vehicles"},
		{Label: "Stock Value", Value: format.Currency(d.StockValue), Hint: "in stock"},
		{Label: "Pending POs", Value: strconv.Itoa(d.PendingPurchaseOrders), Hint: "awaiting approval"},
		{Label: "Pending Leave", Value: strconv.Itoa(d.PendingLeaveRequests), Hint: "awaiting approval"},
		{Label: "Employees", Value: strconv.Itoa(d.ActiveEmployees), Hint: "active"},
		{Label: "Suppliers", Value: strconv.Itoa(d.Suppliers), Hint: "registered"},
		{Label: "Financial Year", Value: fy, Hint: fyHint},
		{Label: "Receipts", Value: format.Currency(d.Receipts), Hint: "this financial year"},
		{Label: "Payments", Value: format.Currency(d.Payments), Hint: "this financial year"},
	}
}

func (s *Service) table(name string) (*store.Table, error) {
	e, ok := s.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("entity %q is not registered", name)
	}
	return s.db.Table(e.Schema()), nil
}

// Dashboard computes the current KPIs.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard

	tables := map[string]*store.Table{}
	for _, name := range []string{"vehicle", "purchase-order", "leave-request", "employee", "supplier",
		"financial-year", "voucher"} {
		t, err := s.table(name)
		if err != nil {
			return d, err
		}
		tables[name] = t
	}

	counts := []struct {
		dest   *int
		table  string
		filter []store.Filter
	}{
		{&d.VehiclesInStock, "vehicle", []store.Filter{store.Eq("status", StockInStock)}},
		{&d.VehiclesBooked, "vehicle", []store.Filter{store.Eq("status", StockBooked)}},
		{&d.VehiclesSold, "vehicle", []store.Filter{store.Eq("status", StockSold)}},
		{&d.PendingPurchaseOrders, "purchase-order", []store.Filter{store.Eq("status", StatusPending)}},
		{&d.PendingLeaveRequests, "leave-request", []store.Filter{store.Eq("status", StatusPending)}},
		{&d.ActiveEmployees, "employee", []store.Filter{store.Eq("status", StatusActive)}},
		{&d.Suppliers, "supplier", nil},
	}
	for _, c := range counts {
		n, err := tables[c.table].Count(ctx, c.filter...)
		if err != nil {
			return d, err
		}
		*c.dest = n
	}

	var err error
	if d.StockValue, err = tables["vehicle"].Sum(ctx, "price", store.Eq("status", StockInStock)); err != nil {
		return d, err
	}

	years, err := tables["financial-year"].FindBy(ctx, "status", StatusActive)
	if err != nil || len(years) == 0 {
		return d, err
	}
	fy := years[0]
	d.FinancialYear, _ = fy.Fields["name"].(string)
	d.FinancialYearStart, _ = fy.Fields["start_date"].(string)
	d.FinancialYearEnd, _ = fy.Fields["end_date"].(string)

	within := []store.Filter{store.Gte("date", d.FinancialYearStart), store.Lte("date", d.FinancialYearEnd)}
	if d.Receipts, err = tables["voucher"].Sum(ctx, "amount",
		append([]store.Filter{store.Eq("type", VoucherReceipt)}, within...)...); err != nil {
		return d, err
	}
	if d.Payments, err = tables["voucher"].Sum(ctx, "amount",
		append([]store.Filter{store.Eq("type", VoucherPayment)}, within...)...); err != nil {
		return d, err
	}
	return d, nil
}
