// Package report holds the typed outputs of the structured adapters and the
// response schemas that constrain them.
package report

// ResourceStatus grades one audited resource of a SiteReport.
type ResourceStatus string

const (
	StatusExcellent ResourceStatus = "Excellent"
	StatusGood      ResourceStatus = "Good"
	StatusFair      ResourceStatus = "Fair"
	StatusPoor      ResourceStatus = "Poor"
)

// SiteReport is the generic audit: one overall score plus a graded list of
// resources. The prompt asks for twelve but any count is accepted.
type SiteReport struct {
	Domain       string     `json:"domain"`
	OverallScore float64    `json:"overallScore"`
	Summary      string     `json:"summary"`
	Resources    []Resource `json:"resources"`
}

type Resource struct {
	Title          string         `json:"title"`
	Score          float64        `json:"score"`
	Status         ResourceStatus `json:"status"`
	Details        string         `json:"details"`
	Recommendation string         `json:"recommendation"`
}

// ClinicalReport is the medical-metaphor audit. It shares nothing with
// SiteReport besides being produced from a URL.
type ClinicalReport struct {
	DoctorName      string       `json:"doctorName"`
	Specialty       string       `json:"specialty"`
	OverallHealth   float64      `json:"overallHealth"`
	ClinicalSummary string       `json:"clinicalSummary"`
	Triage          Triage       `json:"triage"`
	Imaging         Imaging      `json:"imaging"`
	MarketXray      MarketXray   `json:"marketXray"`
	Prescription    Prescription `json:"prescription"`
}

type Triage struct {
	Score     float64 `json:"score"`
	Status    string  `json:"status"`
	Diagnosis string  `json:"diagnosis"`
	Details   string  `json:"details"`
}

type Imaging struct {
	Score        float64  `json:"score"`
	Status       string   `json:"status"`
	Observation  string   `json:"observation"`
	DetectedTags []string `json:"detectedTags"`
}

type MarketXray struct {
	CompetitorComparison string `json:"competitorComparison"`
	LostTerritory        string `json:"lostTerritory"`
}

type Prescription struct {
	ImmediateAction string   `json:"immediateAction"`
	AdHeadlines     []string `json:"adHeadlines"`
	Prognosis       string   `json:"prognosis"`
}

// ChartDataPoint keeps insertion order; names need not be unique.
type ChartDataPoint struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Category string  `json:"category,omitempty"`
}

type MarketData struct {
	Summary string           `json:"summary"`
	Data    []ChartDataPoint `json:"data"`
}
