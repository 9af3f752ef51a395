package policy

import (
	"github.com/corporatepay/console-api/models"
)

// Source identifies which scope supplied a field's effective value.
type Source string

const (
	SourceOrg   Source = "org"
	SourceGroup Source = "group"
	SourceUser  Source = "user"
)

// Section names a policy document section for attribution queries.
type Section string

const (
	SectionRides     Section = "rides"
	SectionPurchases Section = "purchases"
)

// Field names an overridable top-level policy field. Overrides replace whole
// fields; there is no sub-field merging.
type Field string

const (
	FieldCategories     Field = "categories"
	FieldGeofences      Field = "geofences"
	FieldTime           Field = "time"
	FieldPurpose        Field = "purpose"
	FieldModules        Field = "modules"
	FieldMarketplaces   Field = "marketplaces"
	FieldVendorsAllow   Field = "vendors_allow"
	FieldVendorsDeny    Field = "vendors_deny"
	FieldCategoriesDeny Field = "categories_deny"
	FieldMaxBasket      Field = "max_basket"
	FieldAttachments    Field = "attachments"
)

// rideFields and purchaseFields list the overridable fields per section.
var (
	rideFields     = []Field{FieldCategories, FieldGeofences, FieldTime, FieldPurpose}
	purchaseFields = []Field{FieldModules, FieldMarketplaces, FieldVendorsAllow, FieldVendorsDeny, FieldCategoriesDeny, FieldMaxBasket, FieldAttachments}
)

// Merge materializes the effective policy for a scope: a deep copy of the org
// document with the group override applied, then the user override on top so the
// user scope wins per field. Inputs are never mutated and the result shares no
// slices or maps with them. Overrides with nil fields inherit; a present field
// replaces the org value wholesale, even when empty or false.
func Merge(org models.PolicyDocument, group, user *models.PolicyOverride) models.PolicyDocument {
	eff := cloneDocument(org)
	applyOverride(&eff, group)
	applyOverride(&eff, user)
	return eff
}

// SourceOfField reports which scope last set a field's effective value: the user
// override when it carries the field, otherwise the group override, otherwise the
// organization document. Fields outside the known set resolve to the org scope.
func SourceOfField(group, user *models.PolicyOverride, section Section, field Field) Source {
	if overrideHasField(user, section, field) {
		return SourceUser
	}
	if overrideHasField(group, section, field) {
		return SourceGroup
	}
	return SourceOrg
}

// Sources returns the attribution for every overridable field, keyed
// "section.field", for display next to the merged policy.
func Sources(group, user *models.PolicyOverride) map[string]Source {
	out := make(map[string]Source, len(rideFields)+len(purchaseFields))
	for _, f := range rideFields {
		out[string(SectionRides)+"."+string(f)] = SourceOfField(group, user, SectionRides, f)
	}
	for _, f := range purchaseFields {
		out[string(SectionPurchases)+"."+string(f)] = SourceOfField(group, user, SectionPurchases, f)
	}
	return out
}

func applyOverride(doc *models.PolicyDocument, o *models.PolicyOverride) {
	if o == nil {
		return
	}

	if o.Rides.Categories != nil {
		doc.Rides.Categories = *o.Rides.Categories
	}
	if o.Rides.Geofences != nil {
		doc.Rides.Geofences = copyGeofences(*o.Rides.Geofences)
	}
	if o.Rides.Time != nil {
		doc.Rides.Time = copyTimeWindow(*o.Rides.Time)
	}
	if o.Rides.Purpose != nil {
		doc.Rides.Purpose = copyPurposeRule(*o.Rides.Purpose)
	}

	if o.Purchases.Modules != nil {
		doc.Purchases.Modules = copyBoolMap(*o.Purchases.Modules)
	}
	if o.Purchases.Marketplaces != nil {
		doc.Purchases.Marketplaces = copyBoolMap(*o.Purchases.Marketplaces)
	}
	if o.Purchases.VendorsAllow != nil {
		doc.Purchases.VendorsAllow = copyStrings(*o.Purchases.VendorsAllow)
	}
	if o.Purchases.VendorsDeny != nil {
		doc.Purchases.VendorsDeny = copyStrings(*o.Purchases.VendorsDeny)
	}
	if o.Purchases.CategoriesDeny != nil {
		doc.Purchases.CategoriesDeny = copyStrings(*o.Purchases.CategoriesDeny)
	}
	if o.Purchases.MaxBasket != nil {
		doc.Purchases.MaxBasket = *o.Purchases.MaxBasket
	}
	if o.Purchases.Attachments != nil {
		doc.Purchases.Attachments = *o.Purchases.Attachments
	}
}

func overrideHasField(o *models.PolicyOverride, section Section, field Field) bool {
	if o == nil {
		return false
	}

	switch section {
	case SectionRides:
		switch field {
		case FieldCategories:
			return o.Rides.Categories != nil
		case FieldGeofences:
			return o.Rides.Geofences != nil
		case FieldTime:
			return o.Rides.Time != nil
		case FieldPurpose:
			return o.Rides.Purpose != nil
		}
	case SectionPurchases:
		switch field {
		case FieldModules:
			return o.Purchases.Modules != nil
		case FieldMarketplaces:
			return o.Purchases.Marketplaces != nil
		case FieldVendorsAllow:
			return o.Purchases.VendorsAllow != nil
		case FieldVendorsDeny:
			return o.Purchases.VendorsDeny != nil
		case FieldCategoriesDeny:
			return o.Purchases.CategoriesDeny != nil
		case FieldMaxBasket:
			return o.Purchases.MaxBasket != nil
		case FieldAttachments:
			return o.Purchases.Attachments != nil
		}
	}
	return false
}

func cloneDocument(doc models.PolicyDocument) models.PolicyDocument {
	doc.Rides.Geofences = copyGeofences(doc.Rides.Geofences)
	doc.Rides.Time = copyTimeWindow(doc.Rides.Time)
	doc.Rides.Purpose = copyPurposeRule(doc.Rides.Purpose)
	doc.Purchases.Modules = copyBoolMap(doc.Purchases.Modules)
	doc.Purchases.Marketplaces = copyBoolMap(doc.Purchases.Marketplaces)
	doc.Purchases.VendorsAllow = copyStrings(doc.Purchases.VendorsAllow)
	doc.Purchases.VendorsDeny = copyStrings(doc.Purchases.VendorsDeny)
	doc.Purchases.CategoriesDeny = copyStrings(doc.Purchases.CategoriesDeny)
	return doc
}

func copyGeofences(in []models.Geofence) []models.Geofence {
	if in == nil {
		return nil
	}
	out := make([]models.Geofence, len(in))
	copy(out, in)
	return out
}

func copyTimeWindow(w models.TimeWindow) models.TimeWindow {
	w.Days = copyStrings(w.Days)
	return w
}

func copyPurposeRule(p models.PurposeRule) models.PurposeRule {
	p.AllowedTags = copyStrings(p.AllowedTags)
	return p
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyBoolMap(in map[string]bool) map[string]bool {
	if in == nil {
		return nil
	}
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
