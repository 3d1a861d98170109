package app

import (
	"fmt"
	"strings"
	"time"

	"trivia-chat-service/internal/domain"
)

const blankAnswer = "______"

// RenderRound formats a round: the question, one numbered line per correct
// answer in declared order, then the local time as HH:MM. It depends only on
// the snapshot and at, so it can be recomputed for every edit.
func RenderRound(snap domain.RoundSnapshot, at time.Time) string {
	byIndex := make(map[int]domain.Credit, len(snap.Credits))
	for _, c := range snap.Credits {
		byIndex[c.Index] = c
	}

	var b strings.Builder
	b.WriteString(snap.Question.Text)
	b.WriteString("\n\n")
	for i, answer := range snap.Question.Answers {
		if c, ok := byIndex[i]; ok {
			fmt.Fprintf(&b, "%d. %s (+1) [%s]\n", i+1, answer, c.UserName)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", i+1, blankAnswer)
		}
	}
	b.WriteString("\n")
	b.WriteString(at.Format("15:04"))
	return b.String()
}

// RenderReveal lists every correct answer in declared order.
func RenderReveal(q domain.Question) string {
	var b strings.Builder
	b.WriteString(msgSurrendered)
	b.WriteString("\n\n")
	for i, answer := range q.Answers {
		fmt.Fprintf(&b, "%d. %s\n", i+1, answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTopScores(entries []domain.ScoreEntry) string {
	if len(entries) == 0 {
		return msgNoScores
	}
	var b strings.Builder
	b.WriteString("🏆 Global Top Scores\n\n")
	for i, e := range entries {
		name := e.UserName
		if name == "" {
			name = "User_" + e.UserID
		}
		fmt.Fprintf(&b, "%d. %s: %d points\n", i+1, name, e.Total)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderStats(total int, counts map[string]int) string {
	var b strings.Builder
	b.WriteString("📊 Quiz Statistics\n\n")
	fmt.Fprintf(&b, "📝 Total questions: %d\n\n", total)
	b.WriteString("Questions per category:\n")
	for _, category := range sortedKeys(counts) {
		fmt.Fprintf(&b, "• %s: %d questions\n", category, counts[category])
	}
	fmt.Fprintf(&b, "\nCategories: %d", len(counts))
	return b.String()
}
