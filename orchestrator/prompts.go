package orchestrator

const routeInstructions = `You route user requests to the right handler.
Pick exactly one route:
  KNOWLEDGE - the request asks for factual information that should be looked up
  SUMMARIZE - the request asks to summarize a provided document
  DIRECT    - greetings, chit-chat, and anything answerable from the conversation alone
Respond with the JSON object only.`

const routeTemplate = `Recent conversation:
{{.History}}

Latest request: {{.Input}}`

const directInstructions = `You are a helpful assistant. Answer from the conversation context.
Be concise and direct.`

const compactInstructions = `You condense conversation history into a running summary.
Keep decisions, facts, names, and open questions. Drop pleasantries. Write a
single compact paragraph.`

const compactTemplate = `{{if .PriorSummary}}Prior summary:
{{.PriorSummary}}

Extend the prior summary with the messages below.
{{else}}Summarize the messages below.
{{end}}
Messages:
{{.Messages}}`
