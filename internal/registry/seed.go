package registry

// DefaultSeed returns the built-in reference data: six marketplaces, four
// violation types and the five action bands. Callers get a fresh copy.
func DefaultSeed() Seed {
	return Seed{
		Marketplaces: []Marketplace{
			{Code: "de", Name: "Amazon Germany", Country: "Germany", Currency: "EUR", Domain: "amazon.de"},
			{Code: "nl", Name: "Amazon Netherlands", Country: "Netherlands", Currency: "EUR", Domain: "amazon.nl"},
			{Code: "fr", Name: "Amazon France", Country: "France", Currency: "EUR", Domain: "amazon.fr"},
			{Code: "it", Name: "Amazon Italy", Country: "Italy", Currency: "EUR", Domain: "amazon.it"},
			{Code: "es", Name: "Amazon Spain", Country: "Spain", Currency: "EUR", Domain: "amazon.es"},
			{Code: "uk", Name: "Amazon United Kingdom", Country: "United Kingdom", Currency: "GBP", Domain: "amazon.co.uk"},
		},
		ViolationTypes: []ViolationType{
			{
				Code:         "age_claim_without_ce",
				Name:         "Age claim without CE marking",
				Description:  "Product is marketed for infants or children without visible CE certification",
				BaseSeverity: SeverityCritical,
				BaseScore:    35,
			},
			{
				Code:         "undocumented_certification",
				Name:         "Undocumented certification",
				Description:  "Certification is claimed but no supporting documentation is linked",
				BaseSeverity: SeverityHigh,
				BaseScore:    20,
			},
			{
				Code:         "misleading_safety",
				Name:         "Misleading safety claim",
				Description:  "Listing makes safety or protection claims the product cannot support",
				BaseSeverity: SeverityCritical,
				BaseScore:    35,
			},
			{
				Code:         "other",
				Name:         "Other compliance issue",
				Description:  "Compliance issue not covered by a specific violation type",
				BaseSeverity: SeverityMedium,
				BaseScore:    10,
			},
		},
		ActionThresholds: []ActionThreshold{
			{Action: ActionClear, MinScore: 0, MaxScore: 0, Description: "No compliance issues detected"},
			{Action: ActionMonitor, MinScore: 1, MaxScore: 30, Description: "Minor issues; keep the listing under observation"},
			{Action: ActionReview, MinScore: 31, MaxScore: 60, Description: "Material issues; manual review recommended"},
			{Action: ActionComplaintPack, MinScore: 61, MaxScore: 85, Description: "Serious issues; prepare a complaint pack"},
			{Action: ActionUrgentReport, MinScore: 86, MaxScore: 100, Description: "Critical issues; report to the marketplace immediately"},
		},
	}
}
