package policy

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/corporatepay/console-api/models"
)

// Verdict is the outcome of simulating a transaction against a policy.
type Verdict string

const (
	VerdictAllowed          Verdict = "allowed"
	VerdictBlocked          Verdict = "blocked"
	VerdictRequiresApproval Verdict = "requires_approval"
)

// InputKind tags the simulation input variant.
type InputKind string

const (
	InputRide     InputKind = "ride"
	InputPurchase InputKind = "purchase"
	InputService  InputKind = "service"
)

// RideInput describes a candidate ride booking.
type RideInput struct {
	Category    models.RideCategory `json:"category"`
	Weekday     string              `json:"weekday"`
	Time        string              `json:"time"` // HH:MM
	Origin      string              `json:"origin"`
	Destination string              `json:"destination"`
	Purpose     string              `json:"purpose"`
}

// PurchaseInput describes a candidate marketplace or module purchase.
type PurchaseInput struct {
	Module         string          `json:"module"`
	Marketplace    string          `json:"marketplace"`
	Vendor         string          `json:"vendor"`
	Category       string          `json:"category"`
	Total          decimal.Decimal `json:"total"`
	HasAttachments bool            `json:"has_attachments"`
}

// ServiceInput describes a candidate service order. Services skip the module and
// marketplace gates but share the vendor, category and amount checks.
type ServiceInput struct {
	Module         string          `json:"module"`
	Vendor         string          `json:"vendor"`
	Category       string          `json:"category"`
	Total          decimal.Decimal `json:"total"`
	HasAttachments bool            `json:"has_attachments"`
}

// SimulationInput is a tagged variant; exactly the field matching Kind is set.
type SimulationInput struct {
	Kind     InputKind      `json:"kind"`
	Ride     *RideInput     `json:"ride,omitempty"`
	Purchase *PurchaseInput `json:"purchase,omitempty"`
	Service  *ServiceInput  `json:"service,omitempty"`
}

// SimulationResult is the verdict plus display strings for the console.
type SimulationResult struct {
	Status   Verdict `json:"status"`
	Reason   string  `json:"reason"`
	NextStep string  `json:"next_step"`
}

// Terminal branches. Reason and next-step strings are fixed data keyed by
// branch identity, not computed.
type branch string

const (
	branchRideAllowed           branch = "ride_allowed"
	branchRideCategoryBlocked   branch = "ride_category_blocked"
	branchRideOutsideGeofence   branch = "ride_outside_geofence"
	branchRideOutsideDays       branch = "ride_outside_days"
	branchRideOutsideHours      branch = "ride_outside_hours"
	branchRidePurposeMissing    branch = "ride_purpose_missing"
	branchBuyAllowed            branch = "purchase_allowed"
	branchBuyModuleBlocked      branch = "purchase_module_blocked"
	branchBuyMarketplaceBlocked branch = "purchase_marketplace_blocked"
	branchBuyVendorMissing      branch = "purchase_vendor_missing"
	branchBuyVendorDenied       branch = "purchase_vendor_denied"
	branchBuyVendorNotListed    branch = "purchase_vendor_not_allowlisted"
	branchBuyCategoryDenied     branch = "purchase_category_denied"
	branchBuyAttachmentMissing  branch = "purchase_attachment_missing"
	branchBuyOverBasketLimit    branch = "purchase_over_basket_limit"
)

var outcomes = map[branch]SimulationResult{
	branchRideAllowed: {VerdictAllowed,
		"ride matches the effective policy",
		"The booking can proceed."},
	branchRideCategoryBlocked: {VerdictBlocked,
		"category not allowed",
		"Choose an allowed ride category or ask an admin to enable it."},
	branchRideOutsideGeofence: {VerdictBlocked,
		"origin/destination outside allowed geofences",
		"Pick pickup and drop-off points inside an allowed zone."},
	branchRideOutsideDays: {VerdictRequiresApproval,
		"outside allowed days",
		"Submit the ride for approval or reschedule to an allowed day."},
	branchRideOutsideHours: {VerdictRequiresApproval,
		"outside working hours",
		"Submit the ride for approval or move it into working hours."},
	branchRidePurposeMissing: {VerdictBlocked,
		"purpose required",
		"Add a trip purpose before booking."},
	branchBuyAllowed: {VerdictAllowed,
		"purchase matches the effective policy",
		"The order can be submitted."},
	branchBuyModuleBlocked: {VerdictBlocked,
		"service module not allowed",
		"Ask an admin to enable this module for your organization."},
	branchBuyMarketplaceBlocked: {VerdictBlocked,
		"marketplace not allowed",
		"Select an approved marketplace."},
	branchBuyVendorMissing: {VerdictBlocked,
		"vendor is required",
		"Enter the vendor name for this order."},
	branchBuyVendorDenied: {VerdictBlocked,
		"vendor is denylisted",
		"Choose a different vendor; this one is blocked for your organization."},
	branchBuyVendorNotListed: {VerdictBlocked,
		"vendor not on the allowlist",
		"Choose an allowlisted vendor or request the vendor be added."},
	branchBuyCategoryDenied: {VerdictBlocked,
		"category is blocked",
		"Choose a different category; this one is blocked by policy."},
	branchBuyAttachmentMissing: {VerdictBlocked,
		"attachment required at this amount",
		"Attach a quote or receipt before submitting."},
	branchBuyOverBasketLimit: {VerdictRequiresApproval,
		"total exceeds the basket limit",
		"Submit the order for approval or reduce the basket total."},
}

func verdictFor(b branch) SimulationResult {
	return outcomes[b]
}

// Simulate evaluates a candidate transaction against an effective policy and
// returns the first triggered rule's verdict. It is pure and deterministic;
// a Blocked verdict is a normal return value, never an error. A malformed input
// (missing variant for its kind) is a programming error and panics.
func Simulate(effective models.PolicyDocument, input SimulationInput) SimulationResult {
	switch input.Kind {
	case InputRide:
		if input.Ride == nil {
			panic("policy: ride simulation input missing ride payload")
		}
		return simulateRide(effective.Rides, *input.Ride)
	case InputPurchase:
		if input.Purchase == nil {
			panic("policy: purchase simulation input missing purchase payload")
		}
		return simulatePurchase(effective.Purchases, *input.Purchase)
	case InputService:
		if input.Service == nil {
			panic("policy: service simulation input missing service payload")
		}
		p := *input.Service
		return simulateOrder(effective.Purchases, p.Vendor, p.Category, p.Total, p.HasAttachments)
	default:
		panic(fmt.Sprintf("policy: unknown simulation input kind %q", input.Kind))
	}
}

// simulateRide applies the ride rules in order; the first terminal rule wins.
func simulateRide(rides models.RidePolicy, in RideInput) SimulationResult {
	allowed := rides.Categories.Standard
	if in.Category == models.RideCategoryPremium {
		allowed = rides.Categories.Premium
	}
	if !allowed {
		return verdictFor(branchRideCategoryBlocked)
	}

	// An empty geofence set means no restriction, not "nothing allowed".
	if len(rides.Geofences) > 0 {
		if !geofenceContains(rides.Geofences, in.Origin) || !geofenceContains(rides.Geofences, in.Destination) {
			return verdictFor(branchRideOutsideGeofence)
		}
	}

	if len(rides.Time.Days) > 0 && !containsFold(rides.Time.Days, in.Weekday) {
		return verdictFor(branchRideOutsideDays)
	} else if rides.Time.Start != "" && rides.Time.End != "" {
		// HH:MM strings compare correctly lexicographically.
		if in.Time < rides.Time.Start || in.Time > rides.Time.End {
			return verdictFor(branchRideOutsideHours)
		}
	}

	if rides.Purpose.Required && strings.TrimSpace(in.Purpose) == "" {
		return verdictFor(branchRidePurposeMissing)
	}

	return verdictFor(branchRideAllowed)
}

// simulatePurchase gates on module and marketplace, then falls through to the
// order checks shared with services.
func simulatePurchase(purchases models.PurchasePolicy, in PurchaseInput) SimulationResult {
	if !purchases.Modules[in.Module] {
		return verdictFor(branchBuyModuleBlocked)
	}

	if in.Module == string(models.ModuleECommerce) {
		if in.Marketplace == "" || !purchases.Marketplaces[in.Marketplace] {
			return verdictFor(branchBuyMarketplaceBlocked)
		}
	}

	return simulateOrder(purchases, in.Vendor, in.Category, in.Total, in.HasAttachments)
}

// simulateOrder runs the vendor, category and amount rules in order.
func simulateOrder(purchases models.PurchasePolicy, vendor, category string, total decimal.Decimal, hasAttachments bool) SimulationResult {
	if strings.TrimSpace(vendor) == "" {
		return verdictFor(branchBuyVendorMissing)
	}

	// Denylist wins over the allowlist unconditionally.
	if containsFold(purchases.VendorsDeny, vendor) {
		return verdictFor(branchBuyVendorDenied)
	}

	// An empty allowlist means no restriction.
	if len(purchases.VendorsAllow) > 0 && !containsFold(purchases.VendorsAllow, vendor) {
		return verdictFor(branchBuyVendorNotListed)
	}

	if category != "" && containsFold(purchases.CategoriesDeny, category) {
		return verdictFor(branchBuyCategoryDenied)
	}

	// Attachment boundary is inclusive: a total exactly at the threshold
	// requires an attachment.
	if purchases.Attachments.Required &&
		total.GreaterThanOrEqual(purchases.Attachments.Threshold) &&
		!hasAttachments {
		return verdictFor(branchBuyAttachmentMissing)
	}

	// Basket boundary is strict: a total exactly at the limit is allowed.
	if total.GreaterThan(purchases.MaxBasket) {
		return verdictFor(branchBuyOverBasketLimit)
	}

	return verdictFor(branchBuyAllowed)
}

func geofenceContains(fences []models.Geofence, place string) bool {
	for _, f := range fences {
		if strings.EqualFold(f.Name, place) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
