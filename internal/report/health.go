package report

const (
	TriageCritical = "CRITICAL"
	TriageStable   = "STABLE"
	TriageHealthy  = "HEALTHY"

	ImagingAmateur      = "AMATEUR"
	ImagingProfessional = "PROFESSIONAL"
	ImagingAuthority    = "AUTHORITY"
)

// Band is the coarse colour bucket for a 0-100 score.
type Band string

const (
	BandGood     Band = "good"
	BandWarning  Band = "warning"
	BandCritical Band = "critical"
)

func HealthBand(score float64) Band {
	switch {
	case score > 70:
		return BandGood
	case score > 40:
		return BandWarning
	default:
		return BandCritical
	}
}

// Tone maps a clinical status enum to the dashboard's colour family.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNeutral  Tone = "neutral"
	ToneNegative Tone = "negative"
	ToneUnknown  Tone = "unknown"
)

func StatusTone(status string) Tone {
	switch status {
	case TriageHealthy, ImagingAuthority:
		return TonePositive
	case TriageStable, ImagingProfessional:
		return ToneNeutral
	case TriageCritical, ImagingAmateur:
		return ToneNegative
	default:
		return ToneUnknown
	}
}
