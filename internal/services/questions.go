package services

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var defaultQuestions = []string{
	"What is Lakeflow and how does it work?",
	"How can I ingest data into Databricks using Lakeflow?",
	"What source systems are supported by Lakeflow?",
	"Explain the benefits of using Databricks for data processing",
}

type questionsFile struct {
	Questions []string `yaml:"questions"`
}

// QuestionCatalog holds the suggested questions offered on the chat page.
type QuestionCatalog struct {
	questions []string
}

// LoadQuestions reads a YAML file of the form `questions: [...]`. An empty
// path yields the built-in set.
func LoadQuestions(path string) (*QuestionCatalog, error) {
	if path == "" {
		return &QuestionCatalog{questions: slices.Clone(defaultQuestions)}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file %q: %w", path, err)
	}

	var file questionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse questions file %q: %w", path, err)
	}

	questions := make([]string, 0, len(file.Questions))
	for _, q := range file.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return nil, errors.New("questions file must list at least one question")
	}

	return &QuestionCatalog{questions: questions}, nil
}

func (c *QuestionCatalog) All() []string {
	return slices.Clone(c.questions)
}

func (c *QuestionCatalog) Contains(question string) bool {
	return slices.Contains(c.questions, question)
}
