// Package compose renders chat replies from translation and query outcomes.
package compose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/windforest/querychat/internal/nl2sql"
	"github.com/windforest/querychat/internal/query"
	"github.com/windforest/querychat/internal/session"
)

const sqlWrapWidth = 60

type FailureKind string

const (
	FailureTranslation FailureKind = "translation"
	FailureExecution   FailureKind = "execution"
	FailureUnavailable FailureKind = "unavailable"
	FailureRejected    FailureKind = "rejected"
)

// SQLReply describes the query that ran, why, and what it returned.
func SQLReply(invocation nl2sql.SQLInvocation, result query.Result) session.Message {
	var b strings.Builder
	b.WriteString("Based on your question, I ran the following SQL query:\n")
	b.WriteString("```sql\n")
	b.WriteString(WrapSQL(invocation.SQL, sqlWrapWidth))
	b.WriteString("\n```\n\n")
	fmt.Fprintf(&b, "**Rationale:** %s\n", invocation.Rationale)
	b.WriteString(ResultsSection(result))
	return session.Message{Text: b.String(), Origin: session.OriginAssistant}
}

// Answer passes a direct model reply through unchanged.
func Answer(answer nl2sql.DirectAnswer) session.Message {
	return session.Message{Text: answer.Text, Origin: session.OriginAssistant}
}

// Failure renders a failed turn. Only execution and rejection errors are
// shown to the user; other causes get a generic apology.
func Failure(kind FailureKind, err error) session.Message {
	var text string
	switch kind {
	case FailureExecution:
		text = fmt.Sprintf("I encountered an error: SQL execution failed: %s", rootMessage(err))
	case FailureRejected:
		text = "I encountered an error: the generated query was not a single read-only SELECT statement, so it was not run."
	case FailureUnavailable:
		text = "I encountered an error: the assistant is temporarily unavailable. Please try again in a moment."
	default:
		text = "I encountered an error: I could not turn that question into a query. Could you rephrase it?"
	}
	return session.Message{Text: text, Origin: session.OriginError}
}

// Sources lists what a reply was derived from: the query for the SQL path,
// nothing otherwise.
func Sources(outcome nl2sql.Outcome) []string {
	if invocation, ok := outcome.(nl2sql.SQLInvocation); ok {
		return []string{invocation.SQL}
	}
	return []string{}
}

func rootMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// WrapSQL reflows whitespace-separated words into lines of at most width
// characters. Words longer than width get a line of their own.
func WrapSQL(sqlText string, width int) string {
	words := strings.Fields(sqlText)
	if len(words) == 0 {
		return ""
	}
	lines := make([]string, 0, len(words)/4+1)
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) <= width {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	lines = append(lines, current)
	return strings.Join(lines, "\n")
}
