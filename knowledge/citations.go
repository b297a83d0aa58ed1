package knowledge

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/zephyrlab/triad/core"
)

var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// citationsFromPassages converts internal passages into citations ordered by
// descending score.
func citationsFromPassages(passages []core.Passage) []core.Citation {
	citations := make([]core.Citation, 0, len(passages))
	for _, p := range passages {
		citations = append(citations, core.Citation{
			Origin:  core.OriginInternal,
			Label:   p.SourceLabel,
			Snippet: p.Text,
			Score:   p.Score,
		})
	}
	sortByScore(citations)
	return citations
}

// citationsFromWebResults converts web results into citations labelled
// "title (url)", ordered by descending score.
func citationsFromWebResults(results []core.WebResult) []core.Citation {
	citations := make([]core.Citation, 0, len(results))
	for _, r := range results {
		citations = append(citations, core.Citation{
			Origin:  core.OriginWeb,
			Label:   fmt.Sprintf("%s (%s)", r.Title, r.URL),
			Snippet: r.Snippet,
			Score:   r.Score,
		})
	}
	sortByScore(citations)
	return citations
}

func sortByScore(citations []core.Citation) {
	sort.SliceStable(citations, func(i, j int) bool { return citations[i].Score > citations[j].Score })
}

// numberedSources renders citations as a numbered block for the formatting
// prompt. Numbering matches the final citation order (best score first).
func numberedSources(citations []core.Citation) string {
	var b strings.Builder
	for i, c := range citations {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, c.Label, c.Snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}

// alignCitations reconciles model-produced [n] markers with the citation list
// so every marker resolves to exactly one kept citation and every kept
// citation is referenced at least once:
//   - markers pointing outside 1..len(citations) are stripped from the text
//   - citations never referenced are pruned
//   - remaining markers are renumbered to the pruned list, which preserves
//     the original (score-descending) order
func alignCitations(text string, citations []core.Citation) (string, []core.Citation) {
	if len(citations) == 0 {
		return markerPattern.ReplaceAllString(text, ""), nil
	}

	used := make(map[int]bool)
	for _, match := range markerPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 1 || n > len(citations) {
			continue
		}
		used[n] = true
	}

	kept := make([]core.Citation, 0, len(used))
	renumber := make(map[int]int, len(used))
	for i, c := range citations {
		if used[i+1] {
			kept = append(kept, c)
			renumber[i+1] = len(kept)
		}
	}

	aligned := markerPattern.ReplaceAllStringFunc(text, func(marker string) string {
		n, err := strconv.Atoi(strings.Trim(marker, "[]"))
		if err != nil {
			return ""
		}
		if next, ok := renumber[n]; ok {
			return fmt.Sprintf("[%d]", next)
		}
		return ""
	})

	return aligned, kept
}
