package entities

import "testing"

func TestMaxAgents(t *testing.T) {
	tests := []struct {
		plan string
		want int
	}{
		{PlanFree, 1},
		{PlanBasic, 3},
		{PlanPremium, 10},
		{PlanEnterprise, 0},
		{"unknown", 1},
		{"", 1},
	}
	for _, tt := range tests {
		if got := MaxAgents(tt.plan); got != tt.want {
			t.Errorf("MaxAgents(%q) = %d, want %d", tt.plan, got, tt.want)
		}
	}
}

func TestMonthlyPriceCents(t *testing.T) {
	tests := []struct {
		plan string
		want int64
	}{
		{PlanFree, 0},
		{PlanBasic, 9900},
		{PlanPremium, 24900},
		{PlanEnterprise, 79900},
		{"unknown", 0},
	}
	for _, tt := range tests {
		if got := MonthlyPriceCents(tt.plan); got != tt.want {
			t.Errorf("MonthlyPriceCents(%q) = %d, want %d", tt.plan, got, tt.want)
		}
	}
}
