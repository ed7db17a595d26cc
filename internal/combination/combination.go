// Package combination expands declarative variant groups into concrete
// sellable combinations and derives their identifiers. Everything here is
// pure: no I/O, no state, and no failure mode — malformed input (a group with
// zero options) simply yields zero combinations.
package combination

import (
	"strings"
	"unicode"
)

// Option is one selectable value within a group.
type Option struct {
	Value         string
	DisplayText   string
	PriceModifier float64
}

// Group is one variant dimension with its ordered option list.
type Group struct {
	Name    string
	Options []Option
}

// Combination assigns exactly one option value to every group name.
type Combination map[string]string

// skuSeparator joins the base SKU and per-group codes.
const skuSeparator = "-"

// canonicalGroupOrder is the fixed priority list used for SKU derivation.
// It is independent of a group's declared display order; groups not listed
// here are never reflected in a derived SKU.
var canonicalGroupOrder = []string{
	"door_thickness",
	"handing",
	"profile_cylinder",
	"finish",
	"material",
	"size",
	"length",
	"key_type",
}

// abbreviations maps group name -> option value -> SKU code. Values absent
// from the table fall back to the upper-cased initials of each word.
var abbreviations = map[string]map[string]string{
	"door_thickness": {
		"1.5":  "15",
		"1.75": "175",
		"2":    "2",
		"2.25": "225",
		"2.5":  "25",
	},
	"handing": {
		"left":  "LH",
		"right": "RH",
	},
	"profile_cylinder": {
		"standard":      "STD",
		"high_security": "HS",
	},
	"finish": {
		"polished_brass":    "PB",
		"satin_chrome":      "SC",
		"satin_nickel":      "SN",
		"oil_rubbed_bronze": "ORB",
	},
	"material": {
		"stainless_steel": "SS",
		"brass":           "BR",
		"bronze":          "BZ",
	},
	"key_type": {
		"keyed_alike":     "KA",
		"keyed_different": "KD",
	},
}

// Expand produces every combination of one option per group. The result has
// exactly the product of the group option counts, with no duplicates, emitted
// in lexicographic product order: groups iterate in declared order and the
// last group varies fastest. Any group with zero options yields nil.
func Expand(groups []Group) []Combination {
	if len(groups) == 0 {
		return nil
	}
	total := 1
	for _, g := range groups {
		if len(g.Options) == 0 {
			return nil
		}
		total *= len(g.Options)
	}

	combos := make([]Combination, 0, total)
	indices := make([]int, len(groups))
	for {
		c := make(Combination, len(groups))
		for i, g := range groups {
			c[g.Name] = g.Options[indices[i]].Value
		}
		combos = append(combos, c)

		// Advance the odometer; last group ticks fastest.
		pos := len(groups) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(groups[pos].Options) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			return combos
		}
	}
}

// DeriveSKU builds the variant SKU from the base product SKU and one code per
// selected group, taken in canonical priority order. The code comes from the
// abbreviation table, falling back to word initials for unlisted values.
func DeriveSKU(baseSKU string, c Combination) string {
	parts := []string{baseSKU}
	for _, group := range canonicalGroupOrder {
		value, ok := c[group]
		if !ok {
			continue
		}
		parts = append(parts, abbreviate(group, value))
	}
	return strings.Join(parts, skuSeparator)
}

// DeriveTitle appends the selected values, parenthesized, in declared group
// order.
func DeriveTitle(baseTitle string, groups []Group, c Combination) string {
	values := make([]string, 0, len(groups))
	for _, g := range groups {
		if v, ok := c[g.Name]; ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return baseTitle
	}
	return baseTitle + " (" + strings.Join(values, ", ") + ")"
}

// DerivePrice sums the base price and the modifier of every selected option.
// Selections without a matching option contribute 0.
func DerivePrice(basePrice float64, groups []Group, c Combination) float64 {
	price := basePrice
	for _, g := range groups {
		value, ok := c[g.Name]
		if !ok {
			continue
		}
		for _, opt := range g.Options {
			if opt.Value == value {
				price += opt.PriceModifier
				break
			}
		}
	}
	return price
}

// DeriveHandle lower-cases a SKU and collapses every run of non-alphanumeric
// characters to a single separator.
func DeriveHandle(sku string) string {
	var b strings.Builder
	lastSep := true // leading separators are dropped
	for _, r := range strings.ToLower(sku) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSep = false
		} else if !lastSep {
			b.WriteByte('-')
			lastSep = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// abbreviate resolves the SKU code for a (group, value) pair.
func abbreviate(group, value string) string {
	if table, ok := abbreviations[group]; ok {
		if code, ok := table[value]; ok {
			return code
		}
	}
	return initials(value)
}

// initials returns the upper-cased first letter of each word in the value.
func initials(value string) string {
	words := strings.FieldsFunc(value, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, w := range words {
		r := []rune(w)[0]
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
