package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/keywords.md
var keywordsPromptRaw string

//go:embed prompts/job_description.md
var jobDescriptionPromptRaw string

// KeywordsTemplate is the parsed prompt template for keyword extraction.
var KeywordsTemplate = template.Must(template.New("keywords").Parse(keywordsPromptRaw))

// JobDescriptionTemplate is the parsed prompt template for job description parsing.
var JobDescriptionTemplate = template.Must(template.New("job_description").Parse(jobDescriptionPromptRaw))
