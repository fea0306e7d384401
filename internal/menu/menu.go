// Package menu holds the canonical default catalog used by initial seeding
// and by the bulk-reset products/categories scopes. Edit this file to change
// the default menu; the engine never regenerates it.
package menu

import "github.com/shopspring/decimal"

type ProductSeed struct {
	Name        string
	SKU         string
	Price       decimal.Decimal
	Quantity    int
	Allergens   []string
	Description string
}

type CategorySeed struct {
	Name     string
	IconURL  string
	Products []ProductSeed
}

func price(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// Default returns the seed catalog. Callers receive a fresh copy each call so
// a reset cannot mutate the canonical definition.
func Default() []CategorySeed {
	return []CategorySeed{
		{
			Name:    "Coffee",
			IconURL: "/icons/coffee.svg",
			Products: []ProductSeed{
				{Name: "Americano", SKU: "COF-AME", Price: price("85.00"), Quantity: 100},
				{Name: "Cafe Latte", SKU: "COF-LAT", Price: price("110.00"), Quantity: 100, Allergens: []string{"milk"}},
				{Name: "Cappuccino", SKU: "COF-CAP", Price: price("110.00"), Quantity: 100, Allergens: []string{"milk"}},
				{Name: "Caramel Macchiato", SKU: "COF-MAC", Price: price("125.00"), Quantity: 100, Allergens: []string{"milk"}},
			},
		},
		{
			Name:    "Non-Coffee",
			IconURL: "/icons/non-coffee.svg",
			Products: []ProductSeed{
				{Name: "Hot Chocolate", SKU: "NC-CHOC", Price: price("95.00"), Quantity: 100, Allergens: []string{"milk"}},
				{Name: "Iced Tea", SKU: "NC-TEA", Price: price("60.00"), Quantity: 100},
				{Name: "Mango Shake", SKU: "NC-MNGO", Price: price("90.00"), Quantity: 100},
				{Name: "Strawberry Smoothie", SKU: "NC-STRW", Price: price("105.00"), Quantity: 100, Allergens: []string{"milk"}},
			},
		},
		{
			Name:    "Pastries",
			IconURL: "/icons/pastries.svg",
			Products: []ProductSeed{
				{Name: "Butter Croissant", SKU: "PAS-CRO", Price: price("75.00"), Quantity: 100, Allergens: []string{"gluten", "milk", "egg"}},
				{Name: "Chocolate Muffin", SKU: "PAS-MUF", Price: price("70.00"), Quantity: 100, Allergens: []string{"gluten", "milk", "egg"}},
				{Name: "Cinnamon Roll", SKU: "PAS-CIN", Price: price("80.00"), Quantity: 100, Allergens: []string{"gluten", "milk"}},
				{Name: "Banana Bread", SKU: "PAS-BAN", Price: price("65.00"), Quantity: 100, Allergens: []string{"gluten", "egg"}},
			},
		},
		{
			Name:    "Meals",
			IconURL: "/icons/meals.svg",
			Products: []ProductSeed{
				{Name: "Chicken Pesto Panini", SKU: "MEA-PAN", Price: price("160.00"), Quantity: 100, Allergens: []string{"gluten", "milk", "nuts"}},
				{Name: "Beef Tapa Rice Bowl", SKU: "MEA-TAPA", Price: price("150.00"), Quantity: 100, Allergens: []string{"soy"}},
				{Name: "Tuna Melt Sandwich", SKU: "MEA-TUNA", Price: price("140.00"), Quantity: 100, Allergens: []string{"gluten", "milk", "fish"}},
				{Name: "Garden Salad", SKU: "MEA-SAL", Price: price("120.00"), Quantity: 100},
			},
		},
		{
			Name:    "Snacks",
			IconURL: "/icons/snacks.svg",
			Products: []ProductSeed{
				{Name: "Nachos", SKU: "SNK-NACH", Price: price("95.00"), Quantity: 100, Allergens: []string{"milk"}},
				{Name: "French Fries", SKU: "SNK-FRY", Price: price("75.00"), Quantity: 100},
				{Name: "Cheese Sticks", SKU: "SNK-CHE", Price: price("70.00"), Quantity: 100, Allergens: []string{"gluten", "milk"}},
			},
		},
	}
}
