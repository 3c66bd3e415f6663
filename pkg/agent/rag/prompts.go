package rag

// Prompt templates for the retrieval pipeline. Kept here so the node code
// stays readable.

const docGraderPrompt = `You are a grader assessing relevance of a retrieved document to a user question.

Here is the retrieved document:

%s

Here is the user question: %s

If the document contains keyword(s) or semantic meaning related to the user question, grade it as relevant.
Give a binary score 'yes' or 'no' to indicate whether the document is relevant to the question.
Respond with JSON: {"binary_score": "yes"} or {"binary_score": "no"}.`

const ragAnswerPrompt = `You are an assistant for question-answering tasks.

Here is the context to use to answer the question:

%s

Think carefully about the above context.

Now, review the user question:

%s

Provide an answer to this question using only the above context.

Use three sentences maximum and keep the answer concise.

Answer:`

const hallucinationGraderPrompt = `You are a grader assessing whether an answer is grounded in a set of retrieved facts.

Here are the facts:

%s

Here is the answer:

%s

Give a binary score 'yes' or 'no'. 'yes' means the answer is supported by the facts.
Respond with JSON: {"binary_score": "yes"} or {"binary_score": "no"}.`

const retrieveToolDescription = "Use this if you need to search information from the user's indexed document collection. Pass the user's question verbatim as the query."

const webSearchToolDescription = "Use this to search the public web for information not covered by the document collection. Pass the user's question verbatim as the query."
