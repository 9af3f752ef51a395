package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/corporatepay/console-api/models"
)

func rideInput() RideInput {
	return RideInput{
		Category:    models.RideCategoryStandard,
		Weekday:     "Mon",
		Time:        "10:00",
		Origin:      "Jakarta",
		Destination: "HQ Tower",
		Purpose:     "client-visit",
	}
}

func simulateRideWith(t *testing.T, doc models.PolicyDocument, mutate func(*RideInput)) SimulationResult {
	t.Helper()
	in := rideInput()
	if mutate != nil {
		mutate(&in)
	}
	return Simulate(doc, SimulationInput{Kind: InputRide, Ride: &in})
}

func TestSimulateRide_Allowed(t *testing.T) {
	result := simulateRideWith(t, orgDocument(), nil)

	assert.Equal(t, VerdictAllowed, result.Status)
	assert.NotEmpty(t, result.NextStep)
}

func TestSimulateRide_CategoryDisabledAlwaysBlocks(t *testing.T) {
	doc := orgDocument()
	doc.Rides.Categories.Premium = false

	// Regardless of any other input, a disabled category blocks.
	mutations := []func(*RideInput){
		func(in *RideInput) { in.Category = models.RideCategoryPremium },
		func(in *RideInput) { in.Category = models.RideCategoryPremium; in.Origin = "Nowhere" },
		func(in *RideInput) { in.Category = models.RideCategoryPremium; in.Weekday = "Sun"; in.Purpose = "" },
	}
	for _, mutate := range mutations {
		result := simulateRideWith(t, doc, mutate)
		assert.Equal(t, VerdictBlocked, result.Status)
		assert.Equal(t, "category not allowed", result.Reason)
	}
}

func TestSimulateRide_GeofenceChecksBothEnds(t *testing.T) {
	doc := orgDocument()

	tests := []struct {
		name        string
		origin      string
		destination string
		want        Verdict
	}{
		{"both inside", "Jakarta", "HQ Tower", VerdictAllowed},
		{"origin outside", "Bandung", "HQ Tower", VerdictBlocked},
		{"destination outside", "Jakarta", "Bandung", VerdictBlocked},
		{"case-insensitive match", "jakarta", "hq tower", VerdictAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := simulateRideWith(t, doc, func(in *RideInput) {
				in.Origin = tt.origin
				in.Destination = tt.destination
			})
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestSimulateRide_EmptyGeofencesNeverBlock(t *testing.T) {
	doc := orgDocument()
	doc.Rides.Geofences = nil

	result := simulateRideWith(t, doc, func(in *RideInput) {
		in.Origin = "Anywhere"
		in.Destination = "Elsewhere"
	})

	assert.Equal(t, VerdictAllowed, result.Status)
}

func TestSimulateRide_OutsideDaysRequiresApproval(t *testing.T) {
	result := simulateRideWith(t, orgDocument(), func(in *RideInput) {
		in.Weekday = "Sun"
	})

	assert.Equal(t, VerdictRequiresApproval, result.Status)
	assert.Equal(t, "outside allowed days", result.Reason)
}

func TestSimulateRide_OutsideHoursRequiresApproval(t *testing.T) {
	tests := []struct {
		name string
		at   string
		want Verdict
	}{
		{"before start", "07:59", VerdictRequiresApproval},
		{"at start", "08:00", VerdictAllowed},
		{"at end", "18:00", VerdictAllowed},
		{"after end", "18:01", VerdictRequiresApproval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := simulateRideWith(t, orgDocument(), func(in *RideInput) { in.Time = tt.at })
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestSimulateRide_DayRuleEvaluatedBeforeHours(t *testing.T) {
	// Outside both days and hours: the day rule triggers first.
	result := simulateRideWith(t, orgDocument(), func(in *RideInput) {
		in.Weekday = "Sat"
		in.Time = "23:00"
	})

	assert.Equal(t, VerdictRequiresApproval, result.Status)
	assert.Equal(t, "outside allowed days", result.Reason)
}

func TestSimulateRide_PurposeRequired(t *testing.T) {
	tests := []struct {
		name    string
		purpose string
		want    Verdict
	}{
		{"missing", "", VerdictBlocked},
		{"whitespace only", "   ", VerdictBlocked},
		{"present", "airport", VerdictAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := simulateRideWith(t, orgDocument(), func(in *RideInput) { in.Purpose = tt.purpose })
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func purchaseInput() PurchaseInput {
	return PurchaseInput{
		Module:         "services",
		Vendor:         "CleanCo",
		Category:       "cleaning",
		Total:          decimal.NewFromInt(500_000),
		HasAttachments: false,
	}
}

func simulatePurchaseWith(t *testing.T, doc models.PolicyDocument, mutate func(*PurchaseInput)) SimulationResult {
	t.Helper()
	in := purchaseInput()
	if mutate != nil {
		mutate(&in)
	}
	return Simulate(doc, SimulationInput{Kind: InputPurchase, Purchase: &in})
}

func TestSimulatePurchase_ModuleGate(t *testing.T) {
	doc := orgDocument()
	doc.Purchases.Modules["services"] = false

	result := simulatePurchaseWith(t, doc, nil)

	assert.Equal(t, VerdictBlocked, result.Status)
	assert.Equal(t, "service module not allowed", result.Reason)
}

func TestSimulatePurchase_MarketplaceGateForECommerce(t *testing.T) {
	tests := []struct {
		name        string
		marketplace string
		want        Verdict
	}{
		{"missing marketplace", "", VerdictBlocked},
		{"unknown marketplace", "RandomShop", VerdictBlocked},
		{"allowed marketplace", "OfficeMart", VerdictAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := simulatePurchaseWith(t, orgDocument(), func(in *PurchaseInput) {
				in.Module = "e_commerce"
				in.Marketplace = tt.marketplace
			})
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestSimulatePurchase_VendorRequired(t *testing.T) {
	result := simulatePurchaseWith(t, orgDocument(), func(in *PurchaseInput) {
		in.Vendor = ""
	})

	assert.Equal(t, VerdictBlocked, result.Status)
	assert.Equal(t, "vendor is required", result.Reason)
}

func TestSimulatePurchase_DenylistBeatsAllowlist(t *testing.T) {
	doc := orgDocument()
	doc.Purchases.VendorsAllow = []string{"ShadyCo", "CleanCo"}

	result := simulatePurchaseWith(t, doc, func(in *PurchaseInput) {
		in.Vendor = "shadyco" // denylist match is case-insensitive
	})

	assert.Equal(t, VerdictBlocked, result.Status)
	assert.Equal(t, "vendor is denylisted", result.Reason)
}

func TestSimulatePurchase_AllowlistRestrictsWhenNonEmpty(t *testing.T) {
	doc := orgDocument()
	doc.Purchases.VendorsAllow = []string{"OfficeSupplies Ltd"}

	blocked := simulatePurchaseWith(t, doc, nil)
	assert.Equal(t, VerdictBlocked, blocked.Status)
	assert.Equal(t, "vendor not on the allowlist", blocked.Reason)

	allowed := simulatePurchaseWith(t, doc, func(in *PurchaseInput) {
		in.Vendor = "officesupplies ltd"
	})
	assert.Equal(t, VerdictAllowed, allowed.Status)
}

func TestSimulatePurchase_CategoryDenylist(t *testing.T) {
	result := simulatePurchaseWith(t, orgDocument(), func(in *PurchaseInput) {
		in.Category = "Alcohol"
	})

	assert.Equal(t, VerdictBlocked, result.Status)
	assert.Equal(t, "category is blocked", result.Reason)
}

func TestSimulatePurchase_AttachmentThresholdIsInclusive(t *testing.T) {
	tests := []struct {
		name        string
		total       int64
		attachments bool
		want        Verdict
	}{
		{"below threshold without attachment", 999_999, false, VerdictAllowed},
		{"at threshold without attachment", 1_000_000, false, VerdictBlocked},
		{"at threshold with attachment", 1_000_000, true, VerdictAllowed},
		{"above threshold without attachment", 1_500_000, false, VerdictBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := simulatePurchaseWith(t, orgDocument(), func(in *PurchaseInput) {
				in.Total = decimal.NewFromInt(tt.total)
				in.HasAttachments = tt.attachments
			})
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestSimulatePurchase_BasketBoundaryIsStrict(t *testing.T) {
	// Exactly at the limit is allowed; approval starts strictly above it.
	atLimit := simulatePurchaseWith(t, orgDocument(), func(in *PurchaseInput) {
		in.Total = decimal.NewFromInt(5_000_000)
		in.HasAttachments = true
	})
	assert.Equal(t, VerdictAllowed, atLimit.Status)

	overLimit := simulatePurchaseWith(t, orgDocument(), func(in *PurchaseInput) {
		in.Total = decimal.NewFromInt(5_000_001)
		in.HasAttachments = true
	})
	assert.Equal(t, VerdictRequiresApproval, overLimit.Status)
}

// Scenario from the console: an 8M order against a 5M basket limit with
// attachments provided and an allowlisted vendor needs approval, not a block.
func TestScenario_LargeOrderRequiresApproval(t *testing.T) {
	doc := orgDocument()
	doc.Purchases.VendorsAllow = []string{"CleanCo"}

	result := simulatePurchaseWith(t, doc, func(in *PurchaseInput) {
		in.Total = decimal.NewFromInt(8_000_000)
		in.HasAttachments = true
	})

	assert.Equal(t, VerdictRequiresApproval, result.Status)
	assert.Equal(t, "total exceeds the basket limit", result.Reason)
}

func TestSimulateService_SkipsModuleAndMarketplaceGates(t *testing.T) {
	doc := orgDocument()
	doc.Purchases.Modules = map[string]bool{} // would block any purchase

	result := Simulate(doc, SimulationInput{
		Kind: InputService,
		Service: &ServiceInput{
			Module:         "services",
			Vendor:         "CleanCo",
			Category:       "cleaning",
			Total:          decimal.NewFromInt(200_000),
			HasAttachments: false,
		},
	})

	assert.Equal(t, VerdictAllowed, result.Status)
}

func TestSimulateService_SharesOrderRules(t *testing.T) {
	result := Simulate(orgDocument(), SimulationInput{
		Kind: InputService,
		Service: &ServiceInput{
			Module: "services",
			Vendor: "ShadyCo",
			Total:  decimal.NewFromInt(100_000),
		},
	})

	assert.Equal(t, VerdictBlocked, result.Status)
	assert.Equal(t, "vendor is denylisted", result.Reason)
}

func TestSimulate_Deterministic(t *testing.T) {
	doc := orgDocument()
	in := SimulationInput{Kind: InputRide, Ride: &RideInput{
		Category: models.RideCategoryStandard,
		Weekday:  "Tue",
		Time:     "09:30",
		Origin:   "Jakarta",
		Destination: "HQ Tower",
		Purpose:  "airport",
	}}

	first := Simulate(doc, in)
	second := Simulate(doc, in)

	assert.Equal(t, first, second)
}

func TestSimulate_MalformedInputPanics(t *testing.T) {
	assert.Panics(t, func() {
		Simulate(orgDocument(), SimulationInput{Kind: InputRide})
	})
	assert.Panics(t, func() {
		Simulate(orgDocument(), SimulationInput{Kind: "unknown"})
	})
}
