package handlers

import (
	"testing"
)

func TestBuildModifierGroupsRejectsDuplicates(t *testing.T) {
	_, err := buildModifierGroups([]modifierGroupRequest{
		{ID: "sauce", Name: "Sauce", Options: []modifierOptionRequest{{ID: "a", Name: "A"}}},
		{ID: "sauce", Name: "Sauce again", Options: []modifierOptionRequest{{ID: "b", Name: "B"}}},
	})
	if err == nil {
		t.Fatal("expected duplicate group id to fail")
	}

	_, err = buildModifierGroups([]modifierGroupRequest{
		{ID: "sauce", Name: "Sauce", Options: []modifierOptionRequest{
			{ID: "a", Name: "A"},
			{ID: "a", Name: "A again"},
		}},
	})
	if err == nil {
		t.Fatal("expected duplicate option id to fail")
	}
}

func TestBuildModifierGroupsRequiresOptions(t *testing.T) {
	_, err := buildModifierGroups([]modifierGroupRequest{
		{ID: "sauce", Name: "Sauce"},
	})
	if err == nil {
		t.Fatal("expected empty group to fail")
	}
}

func TestBuildTierPricingRejectsNegatives(t *testing.T) {
	if _, err := buildTierPricing(map[string]priceTierRequest{"dozen": {Price: -1}}); err == nil {
		t.Fatal("expected negative price to fail")
	}
	if _, err := buildTierPricing(map[string]priceTierRequest{"dozen": {Price: 120, Units: -3}}); err == nil {
		t.Fatal("expected negative units to fail")
	}

	tiers, err := buildTierPricing(map[string]priceTierRequest{"dozen": {Price: 120, Units: 12}})
	if err != nil {
		t.Fatalf("valid tier failed: %v", err)
	}
	if tiers["dozen"].Units != 12 {
		t.Fatalf("expected units preserved, got %+v", tiers["dozen"])
	}
}

func TestNormalizeCategoriesDeduplicates(t *testing.T) {
	got := normalizeCategories([]string{" Silog ", "Silog", "", "Pastries"})
	if len(got) != 2 || got[0] != "Silog" || got[1] != "Pastries" {
		t.Fatalf("unexpected normalization: %v", got)
	}
}
