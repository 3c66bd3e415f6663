package essay

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-assistant-be/pkg/agent/graph"
	"ai-assistant-be/pkg/agent/rag"
	"ai-assistant-be/pkg/llm"
)

const maxResearchQueries = 3

const planPrompt = `You are an expert writer tasked with writing a high level outline of an essay.
Write such an outline for the user-provided topic. Give an outline of the essay
along with any relevant notes or instructions for the sections.`

const researchPlanPrompt = `You are a researcher charged with providing information that can be used
when writing the following essay. Generate a list of search queries that will
gather any relevant information. Only generate 3 queries max.
Respond with JSON: {"queries": ["...", "..."]}`

const writerPrompt = `You are an essay assistant tasked with writing excellent 5-paragraph essays.
Generate the best essay possible for the user's request and the initial outline.
Utilize all the information below as needed:

------

%s`

// State is the run state of one essay request.
type State struct {
	Task           string
	Plan           string
	Research       []string
	Draft          string
	RevisionNumber int
}

// Result is the outcome of one essay invocation.
type Result struct {
	Plan           string
	Research       []string
	Draft          string
	RevisionNumber int
}

type searchQueries struct {
	Queries []string `json:"queries"`
}

// Workflow is the linear essay pipeline: plan, research via the RAG
// workflow, generate. No revision loop is wired.
type Workflow struct {
	llmProvider llm.LLMProvider
	researcher  *rag.Workflow
	graph       *graph.Graph[*State]
	logger      *log.Logger
}

func NewWorkflow(llmProvider llm.LLMProvider, researcher *rag.Workflow, logger *log.Logger) *Workflow {
	w := &Workflow{
		llmProvider: llmProvider,
		researcher:  researcher,
		logger:      logger,
	}

	g := graph.New[*State]()
	g.AddNode("planner", w.planNode)
	g.AddNode("research_plan", w.researchPlanNode)
	g.AddNode("generate", w.generationNode)
	g.SetEntryPoint("planner")
	g.AddEdge("planner", "research_plan")
	g.AddEdge("research_plan", "generate")
	g.AddEdge("generate", graph.End)

	w.graph = g
	return w
}

// Invoke runs the pipeline for one task.
func (w *Workflow) Invoke(ctx context.Context, task string) (*Result, error) {
	state := &State{Task: task}

	final, err := w.graph.Execute(ctx, state, 10)
	if err != nil {
		return nil, err
	}

	return &Result{
		Plan:           final.Plan,
		Research:       final.Research,
		Draft:          final.Draft,
		RevisionNumber: final.RevisionNumber,
	}, nil
}

func (w *Workflow) planNode(ctx context.Context, state *State) (*State, string, error) {
	w.logger.Printf("[ESSAY] planning: %.50s", state.Task)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: planPrompt},
		{Role: llm.RoleUser, Content: state.Task},
	}
	plan, err := w.llmProvider.Chat(ctx, messages)
	if err != nil {
		return state, "", err
	}
	state.Plan = plan
	return state, "", nil
}

func (w *Workflow) researchPlanNode(ctx context.Context, state *State) (*State, string, error) {
	prompt := fmt.Sprintf("%s\n\nEssay topic: %s", researchPlanPrompt, state.Task)

	var queries searchQueries
	if err := w.llmProvider.StructuredChat(ctx, prompt, &queries, llm.WithTemperature(0)); err != nil {
		return state, "", err
	}

	qs := queries.Queries
	if len(qs) > maxResearchQueries {
		qs = qs[:maxResearchQueries]
	}

	// Sequential, in query order, no deduplication.
	for _, q := range qs {
		w.logger.Printf("[ESSAY] researching: %.60s", q)
		res, err := w.researcher.Invoke(ctx, q)
		if err != nil {
			return state, "", err
		}
		state.Research = append(state.Research, res.Answer)
	}
	return state, "", nil
}

func (w *Workflow) generationNode(ctx context.Context, state *State) (*State, string, error) {
	w.logger.Printf("[ESSAY] drafting with %d research entries", len(state.Research))

	content := strings.Join(state.Research, "\n\n")
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(writerPrompt, content)},
		{Role: llm.RoleUser, Content: fmt.Sprintf("%s\n\nHere is my plan:\n\n%s", state.Task, state.Plan)},
	}

	draft, err := w.llmProvider.Chat(ctx, messages)
	if err != nil {
		return state, "", err
	}

	state.Draft = draft
	state.RevisionNumber++
	return state, "", nil
}
