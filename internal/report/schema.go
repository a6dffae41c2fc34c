package report

import "apilab/internal/gateway/provider"

// SiteReportSchema constrains the generic audit response.
var SiteReportSchema = provider.Object(
	provider.Prop("domain", provider.String("Audited domain without scheme.")),
	provider.Prop("overallScore", provider.Number("0 to 100")),
	provider.Prop("summary", provider.String("Two or three sentence executive summary.")),
	provider.Prop("resources", provider.ArrayOf(provider.Object(
		provider.Prop("title", provider.String("")),
		provider.Prop("score", provider.Number("0 to 100")),
		provider.Prop("status", provider.Enum("", string(StatusExcellent), string(StatusGood), string(StatusFair), string(StatusPoor))),
		provider.Prop("details", provider.String("")),
		provider.Prop("recommendation", provider.String("")),
	), "One entry per audited resource.")),
)

// ClinicalReportSchema constrains the medical-metaphor audit. Descriptions
// stay in Portuguese to match the persona the model is given.
var ClinicalReportSchema = provider.Object(
	provider.Prop("doctorName", provider.String("")),
	provider.Prop("specialty", provider.String("")),
	provider.Prop("overallHealth", provider.Number("0 a 100")),
	provider.Prop("clinicalSummary", provider.String("Resumo clínico do estado digital usando metáforas.")),
	provider.Prop("triage", provider.Object(
		provider.Prop("score", provider.Number("")),
		provider.Prop("status", provider.Enum("", TriageCritical, TriageStable, TriageHealthy)),
		provider.Prop("diagnosis", provider.String("Metáfora médica para a velocidade/segurança.")),
		provider.Prop("details", provider.String("")),
	)),
	provider.Prop("imaging", provider.Object(
		provider.Prop("score", provider.Number("")),
		provider.Prop("status", provider.Enum("", ImagingAmateur, ImagingProfessional, ImagingAuthority)),
		provider.Prop("observation", provider.String("Análise se as imagens passam confiança cirúrgica.")),
		provider.Prop("detectedTags", provider.ArrayOf(provider.String(""), "")),
	)),
	provider.Prop("marketXray", provider.Object(
		provider.Prop("competitorComparison", provider.String("Comparação com concorrentes reais.")),
		provider.Prop("lostTerritory", provider.String("Gatilho de perda de pacientes para concorrentes.")),
	)),
	provider.Prop("prescription", provider.Object(
		provider.Prop("immediateAction", provider.String("Ação cirúrgica imediata no site.")),
		provider.Prop("adHeadlines", provider.ArrayOf(provider.String(""), "3 Headlines focadas em dor/cirurgia.")),
		provider.Prop("prognosis", provider.String("Frase de impacto final convidando para a gestão.")),
	)),
)

// MarketDataSchema constrains generated chart data. category is never asked
// for but tolerated.
var MarketDataSchema = provider.Object(
	provider.Prop("summary", provider.String("")),
	provider.Prop("data", provider.ArrayOf(provider.Object(
		provider.Prop("name", provider.String("")),
		provider.Prop("value", provider.Number("")),
		provider.OptionalProp("category", provider.String("")),
	), "")),
)
