package summarizer

const analyzeInstructions = `You recommend chunking parameters for splitting a document before
map-reduce summarization. Dense technical text wants smaller chunks with more
overlap; loose narrative text tolerates larger chunks. Respond with the JSON
object only.`

const analyzeTemplate = `Document length: {{.Length}} characters.

Document opening:
{{.Head}}

Recommend chunk_size and chunk_overlap in characters.`

const chunkInstructions = `You summarize one section of a larger document. Preserve concrete
facts, names, and numbers. Write a compact paragraph, no preamble.`

const chunkTemplate = `Section {{.Index}} of {{.Total}}:

{{.Text}}`

const combineInstructions = `You merge per-section summaries of a single document into one
coherent summary. Remove repetition introduced by section overlap, keep the
document order, and do not add information that is not in the sections.`

const combineTemplate = `Section summaries:

{{.Sections}}

Write the unified summary.`

const singleInstructions = `You summarize documents. Preserve concrete facts, names, and
numbers. Write a compact summary, no preamble.`
