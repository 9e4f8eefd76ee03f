package ui

import "github.com/xtrntr/tradeview/internal/dom"

// MarketVariant is the order variant that executes without a limit price.
const MarketVariant = "MARKET"

// PriceFieldRequired reports whether the price input applies to variant.
func PriceFieldRequired(variant string) bool {
	return variant != MarketVariant
}

// BindFieldVisibility shows and requires the price input for every order
// variant except MARKET. It reports false, binding nothing, when the
// selector or the price group is absent.
func BindFieldVisibility(doc *dom.Document) bool {
	sel := doc.GetElementByID(OrderVariantID)
	group := doc.GetElementByID(PriceGroupID)
	if sel == nil || group == nil {
		return false
	}
	sel.AddEventListener(EventChange, func(ev *dom.Event) {
		ApplyVariant(doc, ev.Target.Value())
	})
	return true
}

// ApplyVariant sets the price group's visibility and the price input's
// required flag for variant. Repeating the same variant changes nothing.
func ApplyVariant(doc *dom.Document, variant string) {
	group := doc.GetElementByID(PriceGroupID)
	price := doc.GetElementByID(PriceID)
	if PriceFieldRequired(variant) {
		if group != nil {
			group.SetDisplay("block")
		}
		if price != nil {
			price.SetAttr("required", "required")
		}
		return
	}
	if group != nil {
		group.SetDisplay("none")
	}
	if price != nil {
		price.RemoveAttr("required")
	}
}
