package dealer

const (
	StatusActive    = "Active"
	StatusInactive  = "Inactive"
	StatusPending   = "Pending"
	StatusApproved  = "Approved"
	StatusCancelled = "Cancelled"

	StockInStock = "In Stock"
	StockBooked  = "Booked"
	StockSold    = "Sold"

	VoucherReceipt = "Receipt"
	VoucherPayment = "Payment"
	VoucherJournal = "Journal"
)

const (
	phonePattern = `^\+?[0-9][0-9 -]{6,14}$`
	gstinPattern = `^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`
)

func minValue(v float64) *float64 { return &v }

var activeInactive = []string{StatusActive, StatusInactive}

// DefaultRegistry returns the modules of the dealership console.
func DefaultRegistry() *Registry {
	return NewRegistry(
		vehicleEntity(),
		voucherEntity(),
		purchaseOrderEntity(),
		supplierEntity(),
		financeCompanyEntity(),
		colorEntity(),
		financialYearEntity(),
		employeeEntity(),
		leaveRequestEntity(),
		userEntity(),
	)
}

func editDelete() Capabilities {
	return Capabilities{Edit: true, Delete: true}
}

func vehicleEntity() *Entity {
	return &Entity{
		Name:    "vehicle",
		Plural:  "vehicles",
		Label:   "Vehicle",
		Aliases: []string{"stock", "stock-report", "v"},
		Table:   "vehicles",
		Fields: []Field{
			{Key: "chassis_no", Label: "Chassis No", Kind: KindString, Required: true, Unique: true},
			{Key: "model", Label: "Model", Kind: KindString, Required: true},
			{Key: "variant", Label: "Variant", Kind: KindString},
			{Key: "color", Label: "Color", Kind: KindString},
			{Key: "status", Label: "Status", Kind: KindEnum, Required: true,
				Options: []string{StockInStock, StockBooked, StockSold}, Default: StockInStock},
			{Key: "price", Label: "Price", Kind: KindMoney},
			{Key: "purchase_date", Label: "Purchase Date", Kind: KindDate},
			{Key: "supplier", Label: "Supplier", Kind: KindString},
		},
		TitleField:   "chassis_no",
		Capabilities: editDelete(),
	}
}

func voucherEntity() *Entity {
	return &Entity{
		Name:    "voucher",
		Plural:  "vouchers",
		Label:   "Voucher",
		Aliases: []string{"vch"},
		Table:   "vouchers",
		Fields: []Field{
			{Key: "voucher_no", Label: "Voucher No", Kind: KindString, Required: true, Unique: true},
			{Key: "date", Label: "Date", Kind: KindDate, Required: true},
			{Key: "type", Label: "Type", Kind: KindEnum, Required: true,
				Options: []string{VoucherReceipt, VoucherPayment, VoucherJournal}},
			{Key: "party", Label: "Party", Kind: KindString, Required: true},
			{Key: "amount", Label: "Amount", Kind: KindMoney, Required: true},
			{Key: "narration", Label: "Narration", Kind: KindText},
		},
		TitleField:   "voucher_no",
		Capabilities: editDelete(),
	}
}

func purchaseOrderEntity() *Entity {
	return &Entity{
		Name:    "purchase-order",
		Plural:  "purchase-orders",
		Label:   "Purchase order",
		Aliases: []string{"po", "pos"},
		Table:   "purchase_orders",
		Fields: []Field{
			{Key: "po_no", Label: "PO No", Kind: KindString, Required: true, Unique: true},
			{Key: "date", Label: "Date", Kind: KindDate, Required: true},
			{Key: "supplier", Label: "Supplier", Kind: KindString, Required: true},
			{Key: "model", Label: "Model", Kind: KindString, Required: true},
			{Key: "color", Label: "Color", Kind: KindString},
			{Key: "quantity", Label: "Quantity", Kind: KindInteger, Required: true, Min: minValue(1)},
			{Key: "amount", Label: "Amount", Kind: KindMoney, Required: true},
			{Key: "status", Label: "Status", Kind: KindEnum, Required: true,
				Options: []string{StatusPending, StatusApproved, StatusCancelled}, Default: StatusPending},
		},
		TitleField:   "po_no",
		Capabilities: Capabilities{Edit: true, Delete: true, Approve: true, Cancel: true},
		StatusField:  "status",
	}
}

func supplierEntity() *Entity {
	return &Entity{
		Name:    "supplier",
		Plural:  "suppliers",
		Label:   "Supplier",
		Aliases: []string{"vendor", "vendors"},
		Table:   "suppliers",
		Fields: []Field{
			{Key: "name", Label: "Name", Kind: KindString, Required: true, Unique: true},
			{Key: "contact_person", Label: "Contact Person", Kind: KindString},
			{Key: "phone", Label: "Phone", Kind: KindPhone, Pattern: phonePattern, PatternHint: "a phone number"},
			{Key: "email", Label: "Email", Kind: KindEmail},
			{Key: "gstin", Label: "GSTIN", Kind: KindString, Pattern: gstinPattern,
				PatternHint: "a 15 character GSTIN"},
			{Key: "city", Label: "City", Kind: KindString},
			{Key: "state", Label: "State", Kind: KindEnum, Options: States()},
		},
		TitleField:   "name",
		Capabilities: editDelete(),
	}
}

func financeCompanyEntity() *Entity {
	return &Entity{
		Name:    "finance-company",
		Plural:  "finance-companies",
		Label:   "Finance company",
		Aliases: []string{"financier", "financiers", "finance"},
		Table:   "finance_companies",
		Fields: []Field{
			{Key: "name", Label: "Name", Kind: KindString, Required: true, Unique: true},
			{Key: "contact_person", Label: "Contact Person", Kind: KindString},
			{Key: "phone", Label: "Phone", Kind: KindPhone, Pattern: phonePattern, PatternHint: "a phone number"},
			{Key: "email", Label: "Email", Kind: KindEmail},
			{Key: "branch", Label: "Branch", Kind: KindString},
			{Key: "state", Label: "State", Kind: KindEnum, Options: States()},
		},
		TitleField:   "name",
		Capabilities: editDelete(),
	}
}

func colorEntity() *Entity {
	return &Entity{
		Name:    "color",
		Plural:  "colors",
		Label:   "Color",
		Aliases: []string{"colour", "colours", "vehicle-color"},
		Table:   "colors",
		Fields: []Field{
			{Key: "name", Label: "Name", Kind: KindString, Required: true, Unique: true},
			{Key: "code", Label: "Code", Kind: KindString},
			{Key: "status", Label: "Status", Kind: KindEnum, Required: true,
				Options: activeInactive, Default: StatusActive},
		},
		TitleField:   "name",
		Capabilities: editDelete(),
	}
}

func financialYearEntity() *Entity {
	e := &Entity{
		Name:    "financial-year",
		Plural:  "financial-years",
		Label:   "Financial year",
		Aliases: []string{"fy", "fys"},
		Table:   "financial_years",
		Fields: []Field{
			{Key: "name", Label: "Name", Kind: KindString, Required: true},
			{Key: "start_date", Label: "Start Date", Kind: KindDate, Required: true},
			{Key: "end_date", Label: "End Date", Kind: KindDate, Required: true},
			{Key: "status", Label: "Status", Kind: KindEnum, Required: true,
				Options: activeInactive, Default: StatusInactive},
		},
		TitleField:   "name",
		Capabilities: editDelete(),
	}
	e.rules = []rule{
		uniqueNameRule("name"),
		dateOrderRule("start_date", "end_date"),
		singleActiveRule("status"),
	}
	return e
}

func employeeEntity() *Entity {
	return &Entity{
		Name:    "employee",
		Plural:  "employees",
		Label:   "Employee",
		Aliases: []string{"emp", "staff"},
		Table:   "employees",
		Fields: []Field{
			{Key: "code", Label: "Code", Kind: KindString, Required: true, Unique: true},
			{Key: "name", Label: "Name", Kind: KindString, Required: true},
			{Key: "designation", Label: "Designation", Kind: KindString},
			{Key: "department", Label: "Department", Kind: KindString},
			{Key: "phone", Label: "Phone", Kind: KindPhone, Pattern: phonePattern, PatternHint: "a phone number"},
			{Key: "email", Label: "Email", Kind: KindEmail},
			{Key: "joining_date", Label: "Joining Date", Kind: KindDate},
			{Key: "status", Label: "Status", Kind: KindEnum, Required: true,
				Options: activeInactive, Default: StatusActive},
		},
		TitleField:   "name",
		Capabilities: editDelete(),
	}
}

func leaveRequestEntity() *Entity {
	e := &Entity{
		Name:    "leave-request",
		Plural:  "leave-requests",
		Label:   "Leave request",
		Aliases: []string{"leave", "leaves"},
		Table:   "leave_requests",
		Fields: []Field{
			{Key: "employee", Label: "Employee", Kind: KindString, Required: true},
			{Key: "leave_type", Label: "Leave Type", Kind: KindEnum, Required: true,
				Options: []string{"Casual", "Sick", "Earned"}},
			{Key: "from_date", Label: "From", Kind: KindDate, Required: true},
			{Key: "to_date", Label: "To", Kind: KindDate, Required: true},
			{Key: "reason", Label: "Reason", Kind: KindText},
			{Key: "status", Label: "Status", Kind: KindEnum, Required: true,
				Options: []string{StatusPending, StatusApproved, StatusCancelled}, Default: StatusPending},
		},
		TitleField:   "employee",
		Capabilities: Capabilities{Edit: true, Delete: true, Approve: true, Cancel: true},
		StatusField:  "status",
	}
	e.rules = []rule{dateOrderRule("from_date", "to_date")}
	return e
}

// UserEntityName is the entity auth reads credentials from.
const UserEntityName = "user"

func userEntity() *Entity {
	return &Entity{
		Name:    UserEntityName,
		Plural:  "users",
		Label:   "User",
		Aliases: []string{"account", "accounts"},
		Table:   "users",
		Fields: []Field{
			{Key: "username", Label: "Username", Kind: KindString, Required: true, Unique: true,
				Pattern: `^[a-z][a-z0-9._-]{2,31}$`, PatternHint: "3-32 lowercase letters, digits, '.', '_' or '-'"},
			{Key: "full_name", Label: "Full Name", Kind: KindString, Required: true},
			{Key: "role", Label: "Role", Kind: KindEnum, Required: true,
				Options: []string{"admin", "staff"}, Default: "staff"},
			{Key: "status", Label: "Status", Kind: KindEnum, Required: true,
				Options: activeInactive, Default: StatusActive},
			{Key: "password", Label: "Password", Kind: KindPassword, Required: true, Hidden: true},
		},
		TitleField:   "username",
		Capabilities: editDelete(),
	}
}
