// Package grading scores submitted answers against an authoritative question set.
//
// Grading is a pure computation: it performs no I/O and never mutates its inputs.
package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"reflect"
)

// ErrUnknownQuestion is returned when an answer references a question outside the assessment.
var ErrUnknownQuestion = errors.New("unknown question")

// Answer is a single submitted response.
type Answer struct {
	QuestionID uint
	UserAnswer json.RawMessage
}

// Question is the authoritative definition an answer is scored against.
type Question struct {
	ID            uint
	Text          string
	CorrectAnswer json.RawMessage
	Marks         int
}

// Outcome is the scored result for one answer. Text and correct answer are copied so later
// edits to the question bank do not alter it.
type Outcome struct {
	QuestionID    uint
	QuestionText  string
	UserAnswer    json.RawMessage
	CorrectAnswer json.RawMessage
	MarksObtained int
	IsCorrect     bool
}

// Result aggregates every outcome of a submission.
type Result struct {
	Outcomes           []Outcome
	TotalMarksObtained int
}

// Grade scores answers in submission order. An unknown question fails the whole call.
func Grade(answers []Answer, questions []Question) (Result, error) {
	index := make(map[uint]Question, len(questions))
	for _, question := range questions {
		index[question.ID] = question
	}

	result := Result{Outcomes: make([]Outcome, 0, len(answers))}
	for _, answer := range answers {
		question, ok := index[answer.QuestionID]
		if !ok {
			return Result{}, fmt.Errorf("%w: %d", ErrUnknownQuestion, answer.QuestionID)
		}

		correct := Equal(answer.UserAnswer, question.CorrectAnswer)
		marks := 0
		if correct {
			marks = question.Marks
		}

		result.Outcomes = append(result.Outcomes, Outcome{
			QuestionID:    question.ID,
			QuestionText:  question.Text,
			UserAnswer:    clone(answer.UserAnswer),
			CorrectAnswer: clone(question.CorrectAnswer),
			MarksObtained: marks,
			IsCorrect:     correct,
		})
		result.TotalMarksObtained += marks
	}

	return result, nil
}

// Equal compares two JSON values exactly: strings are case-sensitive and values of
// different JSON types never match ("5" is not 5). Malformed input never matches.
func Equal(a, b json.RawMessage) bool {
	left, ok := decode(a)
	if !ok {
		return false
	}
	right, ok := decode(b)
	if !ok {
		return false
	}
	return reflect.DeepEqual(left, right)
}

// TotalMarks sums the marks of every question.
func TotalMarks(questions []Question) int {
	total := 0
	for _, question := range questions {
		total += question.Marks
	}
	return total
}

func decode(raw json.RawMessage) (interface{}, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, false
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, false
	}
	return canonical(value)
}

// canonical rewrites every json.Number as an exact rational so that large integers keep
// their precision and 5 still equals 5.0.
func canonical(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case json.Number:
		rat, ok := new(big.Rat).SetString(v.String())
		if !ok {
			return nil, false
		}
		return number(rat.RatString()), true
	case []interface{}:
		for i, item := range v {
			normalized, ok := canonical(item)
			if !ok {
				return nil, false
			}
			v[i] = normalized
		}
		return v, true
	case map[string]interface{}:
		for key, item := range v {
			normalized, ok := canonical(item)
			if !ok {
				return nil, false
			}
			v[key] = normalized
		}
		return v, true
	default:
		return v, true
	}
}

// number keeps canonical numbers distinct from strings holding the same digits.
type number string

func clone(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
