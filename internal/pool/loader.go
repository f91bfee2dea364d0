package pool

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/moritz-zoellner/pyrope/internal/exercise"
)

// Registry resolves exercise names referenced by quiz files to their
// definitions.
type Registry map[string]*exercise.Definition

// quizSchema validates quiz definition files before they are decoded.
var quizSchema = map[string]any{
	"$id":  "schema://quiz.json",
	"type": "object",
	"properties": map[string]any{
		"title":      map[string]any{"type": "string"},
		"navigation": map[string]any{"type": "string", "enum": []any{"free", "sequential"}},
		"select":     map[string]any{"type": "integer", "minimum": 0},
		"shuffle":    map[string]any{"type": "boolean"},
		"weights": map[string]any{
			"type": "object",
			"patternProperties": map[string]any{
				"^[0-9]+$": map[string]any{"type": "number", "minimum": 0},
			},
			"additionalProperties": false,
		},
		"items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"oneOf": []any{
					map[string]any{
						"type": "object",
						"properties": map[string]any{
							"exercise": map[string]any{"type": "string"},
						},
						"required":             []any{"exercise"},
						"additionalProperties": false,
					},
					map[string]any{"$ref": "#"},
				},
			},
		},
	},
	"required":             []any{"items"},
	"additionalProperties": false,
}

var (
	compiledQuizSchema *jsonschema.Schema
	compileQuizOnce    sync.Once
	compileQuizErr     error
)

func quizSchemaCompiled() (*jsonschema.Schema, error) {
	compileQuizOnce.Do(func() {
		raw, err := json.Marshal(quizSchema)
		if err != nil {
			compileQuizErr = fmt.Errorf("marshal quiz schema: %w", err)
			return
		}
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			compileQuizErr = fmt.Errorf("parse quiz schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://quiz.json", parsed); err != nil {
			compileQuizErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledQuizSchema, compileQuizErr = c.Compile("schema://quiz.json")
	})
	return compiledQuizSchema, compileQuizErr
}

type quizFile struct {
	Title      string             `json:"title"`
	Navigation string             `json:"navigation"`
	Select     int                `json:"select"`
	Shuffle    bool               `json:"shuffle"`
	Weights    map[string]float64 `json:"weights"`
	Items      []json.RawMessage  `json:"items"`
}

type quizItemRef struct {
	Exercise string `json:"exercise"`
}

// Load parses and validates a quiz definition file and resolves its
// exercise references against the registry.
func Load(data []byte, reg Registry) (*Pool, error) {
	schema, err := quizSchemaCompiled()
	if err != nil {
		return nil, err
	}
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("invalid quiz file: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("quiz file validation failed: %w", err)
	}
	p, err := decodeQuiz(data, reg)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeQuiz(data []byte, reg Registry) (*Pool, error) {
	var qf quizFile
	if err := json.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	p := &Pool{
		Title:      qf.Title,
		Navigation: Navigation(qf.Navigation),
		Select:     qf.Select,
		Shuffle:    qf.Shuffle,
	}
	if p.Navigation == "" {
		p.Navigation = NavigationFree
	}
	if len(qf.Weights) > 0 {
		p.Weights = map[int]float64{}
		for key, w := range qf.Weights {
			var idx int
			if _, err := fmt.Sscanf(key, "%d", &idx); err != nil {
				return nil, fmt.Errorf("weight index %q: %w", key, err)
			}
			p.Weights[idx] = w
		}
	}
	for _, raw := range qf.Items {
		var ref quizItemRef
		if err := json.Unmarshal(raw, &ref); err == nil && ref.Exercise != "" {
			def, ok := reg[ref.Exercise]
			if !ok {
				return nil, fmt.Errorf("quiz references unknown exercise %q", ref.Exercise)
			}
			p.Add(def)
			continue
		}
		sub, err := decodeQuiz(raw, reg)
		if err != nil {
			return nil, err
		}
		p.AddPool(sub)
	}
	return p, nil
}
