package summarize

import "fmt"

// deckPrompt asks for the content slides as a strict JSON array. The model
// tends to wrap output in markdown fences; the parser strips those.
func deckPrompt(text string, target, min, max int) string {
	return fmt.Sprintf(`You are an expert presentation designer. Summarize the following document into %d slides (no fewer than %d, no more than %d).

Return ONLY a JSON array, no prose before or after. Each element must have exactly these fields:
  "title": short slide title (at most 8 words)
  "bullets": array of at most 3 concise bullet points
  "speaker_notes": 2-3 spoken sentences narrating the slide, conversational tone

Rules:
- Cover the document's main ideas in reading order.
- Bullets are fragments, not sentences; speaker notes are full sentences.
- Expand ALL acronyms and abbreviations into their full forms, in titles, bullets, and speaker notes alike. The speaker notes are converted to audio narration, so a bare acronym would be read out letter by letter.
- Do not invent facts that are not in the document.

Document:
%s`, target, min, max, text)
}

// titlePrompt asks for the opening slide. Kept separate so a parse failure
// here never invalidates an already-good deck.
func titlePrompt(text string) string {
	return fmt.Sprintf(`Propose a title slide for a presentation of the following document.

Return ONLY a JSON object with exactly these fields:
  "title": the presentation title (at most 10 words)
  "subtitle": one engaging subtitle line

Expand any acronyms or abbreviations into their full forms.

Document:
%s`, text)
}
