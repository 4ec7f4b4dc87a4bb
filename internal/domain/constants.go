package domain

const (
	RoleAdmin      = "admin"
	RoleSubscriber = "subscriber"
	RoleActive     = "active"
	RoleExpired    = "expired"
)

const (
	MembershipActive  = "active"
	MembershipExpired = "expired"
)

const (
	EnrollmentGeneralTraining = "general_training"
	EnrollmentAcademic        = "academic"
	EnrollmentBoth            = "both"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

const (
	PaymentTypeNew       = "new"
	PaymentTypeExtension = "extension"
)

const (
	MethodPayPal = "paypal"
	MethodStripe = "stripe"
)

// ModuleSlugMap maps an enrollment type to the content module tag it covers.
var ModuleSlugMap = map[string]string{
	EnrollmentGeneralTraining: "general-training",
	EnrollmentAcademic:        "academic",
}

func IsValidEnrollmentType(t string) bool {
	switch t {
	case EnrollmentGeneralTraining, EnrollmentAcademic, EnrollmentBoth:
		return true
	}
	return false
}

// PricingPlan is static configuration, not persisted state.
type PricingPlan struct {
	Key          string  `json:"key"`
	Label        string  `json:"label"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days"`
	Type         string  `json:"type"` // new | extension
}

const (
	PlanNew90    = "new_90"
	PlanExtend7  = "extend_7"
	PlanExtend30 = "extend_30"
	PlanExtend90 = "extend_90"
)

// PricingPlans are the four fixed purchase options.
var PricingPlans = map[string]PricingPlan{
	PlanNew90:    {Key: PlanNew90, Label: "90 Days Membership", Price: 24.95, DurationDays: 90, Type: PaymentTypeNew},
	PlanExtend7:  {Key: PlanExtend7, Label: "1 Week Extension", Price: 5.00, DurationDays: 7, Type: PaymentTypeExtension},
	PlanExtend30: {Key: PlanExtend30, Label: "1 Month Extension", Price: 10.00, DurationDays: 30, Type: PaymentTypeExtension},
	PlanExtend90: {Key: PlanExtend90, Label: "3 Months Extension", Price: 20.00, DurationDays: 90, Type: PaymentTypeExtension},
}

// PlanOrder is the display order for the pricing endpoint.
var PlanOrder = []string{PlanNew90, PlanExtend7, PlanExtend30, PlanExtend90}
