package catalog

import (
	"fmt"

	"github.com/01moynul/culinamarket/internal/models"
)

const sampleImage = "https://images.unsplash.com/photo-%s?auto=format&fit=crop&w=600&q=80"

type sample struct {
	name, category, photo string
	price                 int64
	stock                 int
}

var samples = []sample{
	{"Fresh Organic Spinach", "Vegetables", "1576045057995-568f588f82fb", 15000, 45},
	{"Red Cherry Tomatoes", "Vegetables", "1546470427-f5b9cdd45a95", 22000, 30},
	{"Ripe Avocado (Australia)", "Fruits", "1523049673856-428631a84f25", 35000, 25},
	{"Sweet Bananas (Bunch)", "Fruits", "1571771896612-410d50223c53", 18000, 50},
	{"Fresh Garlic Bulb", "Vegetables", "1615485925694-a035aa0f471a", 5000, 100},
	{"Barilla Spaghetti No.5", "Pantry", "1551462147-37885acc36f1", 25000, 60},
	{"Premium Jasmine Rice (5kg)", "Pantry", "1586201375761-83865001e31c", 85000, 20},
	{"Extra Virgin Olive Oil", "Pantry", "1474979266404-7eaacbcdccef", 120000, 15},
	{"Fresh Salmon Fillet (200g)", "Meat & Seafood", "1599084993091-1cb5c0721cc6", 75000, 12},
	{"Organic Chicken Breast (500g)", "Meat & Seafood", "1604503468506-a8da13d82791", 45000, 18},
	{"Farm Fresh Eggs (10pcs)", "Dairy & Eggs", "1506976785307-8732e854ad03", 28000, 40},
	{"Whole Milk (1L)", "Dairy & Eggs", "1550583724-b2692b85b150", 22000, 35},
}

// SampleProducts is served when the product store cannot be reached.
func SampleProducts() []models.Product {
	out := make([]models.Product, len(samples))
	for i, s := range samples {
		out[i] = models.Product{
			ID:            fmt.Sprintf("sample-%d", i+1),
			Name:          s.name,
			Category:      s.category,
			Price:         s.price,
			StockQuantity: s.stock,
			ImageURL:      fmt.Sprintf(sampleImage, s.photo),
		}
	}
	return out
}
