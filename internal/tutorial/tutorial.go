// Package tutorial is a terminal slideshow covering RAG theory and how this
// project implements it. It has no runtime dependency on the rest of the
// system.
package tutorial

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Slide is a single screen of the slideshow.
type Slide struct {
	Title string
	Body  string
}

const clearScreen = "\033[2J\033[H"

// Run shows all slides on out, advancing on each line read from in.
// EOF or a read error stops the show early.
func Run(out io.Writer, in io.Reader) {
	reader := bufio.NewReader(in)
	slides := Slides()

	for i, slide := range slides {
		render(out, slide, i+1, len(slides))
		if _, err := reader.ReadString('\n'); err != nil {
			fmt.Fprintln(out, "\nSlideshow stopped.")
			return
		}
	}
	fmt.Fprintln(out, "Thanks for watching!")
}

func render(out io.Writer, s Slide, num, total int) {
	rule := strings.Repeat("─", 72)
	fmt.Fprint(out, clearScreen)
	fmt.Fprintf(out, "%s\n %s\n%s\n", rule, s.Title, rule)
	fmt.Fprintln(out, s.Body)
	fmt.Fprintf(out, "%s\n Slide %d/%d — press Enter for next slide (Ctrl+C to quit)\n", rule, num, total)
}

// Slides returns the tutorial deck.
func Slides() []Slide {
	return []Slide{
		{
			Title: "RAG Tutorial: From Theory to This Project",
			Body: `This slideshow covers:
- RAG theory: what it is and why it matters
- How to construct RAG: the essential building blocks
- LLM, Agent and RAG: how they talk to each other
- This project: the newsrag architecture and flow`,
		},
		{
			Title: "What is RAG?",
			Body: `RAG = Retrieval-Augmented Generation.

Combine retrieval (fetch relevant documents from a corpus) with generation
(an LLM produces the answer). The model is augmented with external knowledge
at query time instead of relying only on its training data.

Core idea: ground the model's answer in real documents (your docs, feeds,
databases) so answers are up to date and traceable.`,
		},
		{
			Title: "Why RAG?",
			Body: `Limits of LLM-only systems:
- Knowledge cut-off: no recent events or private data.
- Hallucinations: no way to check facts.
- No citations: users cannot verify.

What RAG adds:
- Fresh knowledge from your indexed sources (here: news feeds).
- Evidence: retrieved snippets can back the answer.
- Control: you choose what goes into the index and what gets retrieved.`,
		},
		{
			Title: "RAG Pipeline: Two Phases",
			Body: `1. Indexing (offline / on ingest)
   Ingest sources -> extract text -> compute embeddings -> store in a
   vector index.

2. Query (online)
   User question -> query refinement -> retrieve top-k similar documents ->
   build a prompt with context + question -> LLM generates the answer.

This project does both: the ingester handles indexing, the searcher and the
RAG engine handle the query path.`,
		},
		{
			Title: "How to Construct RAG: Essentials",
			Body: `Ingest    load and parse sources      RSS feeds from feedsources.md
Extract   get searchable text         readability over article pages
Embed     vector representation       Ollama or OpenAI embeddings
Store     vector index                SQLite "news" collection
Retrieve  similarity search           cosine over stored embeddings
Augment   add context to the prompt   concatenate retrieved snippets
Generate  LLM answer                  POST /query`,
		},
		{
			Title: "LLM vs Agent vs RAG",
			Body: `LLM: a model that takes text in and produces text out. No built-in tools
or memory; usable for refinement, summarization, or the final answer.

Agent: a system that uses an LLM to decide what to do next (call a tool,
search, run code) and iterates until the task is done.

RAG: a fixed pipeline. Retrieve relevant documents, then pass them with the
user question to an LLM for one answer. Retrieval is a defined step, not a
tool the model chooses.`,
		},
		{
			Title: "How LLM, Agent, and RAG Talk to Each Other",
			Body: `RAG uses the LLM in two places here:
1. Query refinement: user question -> LLM -> better search query.
2. Answer generation: retrieved context + question -> LLM -> final answer.

An agent could sit on top: it could choose to call RAG as one of its tools
("search the news index") and combine the result with other tools.

Flow: User -> [Agent?] -> RAG (refine -> retrieve -> augment -> LLM) -> Answer.`,
		},
		{
			Title: "This Project: newsrag Architecture",
			Body: `feedsources.md -> ingester (IngestAll / IngestFeed)
                       |
                 SQLite vector index, "news" collection
                       |
user query -> server (POST /query) -> rag.Engine.Query
                       |
            Refine -> index.Search -> LLM with context
                       |
                  answer -> client`,
		},
		{
			Title: "Flow in Code (Query Path)",
			Body: `POST /query (internal/server):
1. rag.Engine.Query(query, model)
2. Refine(query) produces the refined search query (LLM call one)
3. index.Store.Search(refined, k) returns documents and metadata
4. Build the prompt: retrieved snippets + the original question
5. Provider.Generate(prompt) returns the answer (LLM call two)

Ingest path: POST /ingest or 'newsrag ingest' -> fetch RSS -> fetch
articles -> extract text and image alts -> embed -> index.Store.Add.`,
		},
		{
			Title: "Summary",
			Body: `- RAG retrieves relevant documents, then generates an answer with an LLM
  so responses are grounded and current.
- Constructing RAG: ingest -> extract -> embed -> store -> retrieve ->
  augment -> generate.
- The LLM is used inside RAG for refinement and the final answer; an agent
  could use RAG as one of its tools in a broader loop.

This project: feed table + ingester + SQLite vector index + RAG engine +
JSON API = end-to-end RAG over the news.`,
		},
	}
}
