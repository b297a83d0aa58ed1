package knowledge

const refineInstructions = `You rewrite user questions into standalone search queries.
Using the recent conversation for context, rewrite the latest question so it can
be understood without the conversation. Keep it short and keyword rich. Do not
answer the question.`

const refineTemplate = `Recent conversation:
{{.History}}

Latest question: {{.Query}}

Respond with the rewritten search query only.`

const evaluateInstructions = `You judge whether retrieved passages can answer a question.
Consider only the passages given. Be strict: passages that merely mention the
topic without answering the question are not sufficient.`

const evaluateTemplate = `Question: {{.Query}}

Retrieved passages:
{{.Passages}}` + "\n"

const formatInternalInstructions = `You answer questions using only the numbered sources provided.
Cite sources inline with bracketed numbers like [1] or [2] immediately after the
claims they support. Only cite sources you actually used. Do not invent sources
or cite numbers that are not listed.`

const formatExternalInstructions = `You answer questions using only the numbered web results provided.
Cite results inline with bracketed numbers like [1] or [2] immediately after the
claims they support. Only cite results you actually used. Do not invent results
or cite numbers that are not listed.`

const formatTemplate = `Question: {{.Query}}

Sources:
{{.Sources}}

Answer the question using the sources above.`
