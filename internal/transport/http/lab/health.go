package labhttp

import "apilab/internal/report"

// healthView summarizes an audit result for the card badge.
type healthView struct {
	Score       float64     `json:"score"`
	Band        report.Band `json:"band"`
	TriageTone  report.Tone `json:"triage_tone,omitempty"`
	ImagingTone report.Tone `json:"imaging_tone,omitempty"`
}

// healthOf returns nil for results that are not audit reports.
func healthOf(result any) *healthView {
	switch r := result.(type) {
	case report.SiteReport:
		return &healthView{Score: r.OverallScore, Band: report.HealthBand(r.OverallScore)}
	case *report.SiteReport:
		if r != nil {
			return healthOf(*r)
		}
	case report.ClinicalReport:
		return &healthView{
			Score:       r.OverallHealth,
			Band:        report.HealthBand(r.OverallHealth),
			TriageTone:  report.StatusTone(r.Triage.Status),
			ImagingTone: report.StatusTone(r.Imaging.Status),
		}
	case *report.ClinicalReport:
		if r != nil {
			return healthOf(*r)
		}
	}
	return nil
}
