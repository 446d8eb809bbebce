package handlers

import "c2w-go-api/internal/models"

// DefaultCatalog is the set of selections the dashboard offers
var DefaultCatalog = models.Catalog{
	Countries: []models.CatalogEntry{
		{ID: "France", Name: "France"},
		{ID: "Germany", Name: "Germany"},
		{ID: "Belgium", Name: "Belgium"},
		{ID: "United Kingdom", Name: "United Kingdom"},
		{ID: "Spain", Name: "Spain"},
		{ID: "Hungary", Name: "Hungary"},
		{ID: "Switzerland", Name: "Switzerland"},
	},
	Products: []models.CatalogEntry{
		{ID: "08011100", Name: "Desiccated coconuts"},
		{ID: "080112", Name: "Cinamonan"},
	},
}
