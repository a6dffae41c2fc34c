package adapter

const defaultVisionPrompt = "Analyze this image in detail. List objects, detect text, and describe the scene."

const simulatePrompt = `Act as the %s. Process the following input and return a realistic response typical of this API (e.g., JSON analysis, report, or status):

Input: "%s"`

const marketPrompt = `Generate a JSON dataset representing market trends or performance metrics for: "%s".
Also provide a brief summary string.
The JSON should be an array of objects with "name" (string) and "value" (number) keys.`

const searchPrompt = "Search for the following and provide a summary with sources: %s"

const mapsPrompt = "Find place information for: %s"

var textTaskPrompts = map[TextTask]struct {
	system string
	user   func(text, lang string) string
}{
	TaskTranslate: {
		system: "You are a professional translator (Cloud Translation API).",
		user: func(text, lang string) string {
			return "Translate the following text to " + lang + ":\n\n\"" + text + "\""
		},
	},
	TaskSentiment: {
		system: "You are a Natural Language Processing engine (Cloud NLP API).",
		user: func(text, _ string) string {
			return "Analyze the sentiment, extract entities, and syntax of the following text. Provide a structured report:\n\n\"" + text + "\""
		},
	},
	TaskQA: {
		system: "You are an intelligent business assistant (My Business Q&A API).",
		user: func(text, _ string) string {
			return "Answer the following customer question or review professionally and helpfully:\n\n\"" + text + "\""
		},
	},
}

const siteAuditSystem = `You are a senior web auditor. Grade sites the way a performance profiler,
an SEO crawler and an accessibility checker would, and keep every finding concrete.`

const siteAuditPrompt = `Audit the website: %s.
Evaluate exactly 12 resources: Performance, SEO, Accessibility, Best Practices, Security,
Mobile Friendliness, Content Quality, Structured Data, Social Presence, Local Listing,
Conversion Paths and Analytics.
For each resource give a 0-100 score, a status of Excellent, Good, Fair or Poor,
what you found, and one recommendation.
Return strict JSON following the provided schema.`

const clinicalAuditSystem = `
Você é o "OrtoAudit AI", um consultor de elite em Marketing Médico especializado em Ortopedia e Traumatologia.
Sua função é transformar dados técnicos de sites em um "Diagnóstico Clínico Digital".

DIRETRIZES DE TOM E LINGUAGEM:
1. Metáforas Médicas Obrigatórias: Nunca use termos técnicos de TI isolados.
   - Site Lento = "Paciente com mobilidade reduzida", "Articulação travada" ou "Isquemia digital".
   - Sem Mobile/Responsivo = "Ambiente sem acessibilidade" ou "Barreira arquitetônica".
   - Erro de Segurança/Vírus = "Baixa imunidade" ou "Risco de infecção hospitalar".
   - SEO Fraco = "Invisibilidade clínica", "Sintoma silencioso" ou "Prognóstico reservado".
2. Autoridade: Fale de médico para médico ("Colega"). Seja "cirúrgico" nas críticas.
3. Foco em High-Ticket: Direcione a solução para Cirurgias (Próteses, Robótica) e não consultinhas baratas.

O PROTOCOLO (SEÇÕES):
1. TRIAGEM (Performance & Segurança): Analise velocidade e segurança.
2. EXAME DE IMAGEM (Branding): Analise se as fotos passam confiança ou são banco de imagem genérico.
3. RAIO-X DO MERCADO (Competitividade): Cite concorrentes locais e perda de território.
4. PRESCRIÇÃO (Plano): 3 Headlines de Ads e ação imediata.
`

const clinicalAuditPrompt = `
Analise o site: %s.
Use o Google Search para encontrar:
1. O nome do médico e especialidade exata.
2. Concorrentes diretos na mesma cidade/região.
3. Detalhes reais sobre a performance, reputação e imagens usadas no site.

Gere um relatório JSON estrito seguindo o schema fornecido.
`

const clinicalScreenshotNote = "\nUma captura da página inicial está anexada para o EXAME DE IMAGEM.\n"

const (
	emptyVision = "No analysis could be generated."
	emptyText   = "No response generated."
	emptySim    = "No response."
	emptyMaps   = "No places found."
)
