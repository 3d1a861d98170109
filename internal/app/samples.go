package app

import "trivia-chat-service/internal/domain"

// SampleQuestions seeds an empty store.
func SampleQuestions() []domain.NewQuestion {
	return []domain.NewQuestion{
		{
			Text:       "Name the \"trap\" letters of the Russian alphabet (type them with a Russian keyboard)",
			Answers:    []string{"С", "Р", "В", "Х", "У", "Е", "Н"},
			Category:   "russian",
			Difficulty: "medium",
		},
		{
			Text:       "Name the 2 sign letters of the Russian alphabet",
			Answers:    []string{"Ъ", "Ь"},
			Category:   "russian",
			Difficulty: "easy",
		},
		{
			Text:       "What do bored people do?",
			Answers:    []string{"make trouble", "read a book", "play games", "watch tv", "sleep"},
			Category:   domain.DefaultCategory,
			Difficulty: "easy",
		},
		{
			Text:       "Name a big city in Indonesia",
			Answers:    []string{"jakarta", "surabaya", "bandung", "medan", "makassar", "semarang", "palembang", "depok"},
			Category:   "geography",
			Difficulty: "easy",
		},
		{
			Text:       "Name the colors of the rainbow",
			Answers:    []string{"red", "orange", "yellow", "green", "blue", "indigo", "violet"},
			Category:   "science",
			Difficulty: "easy",
		},
	}
}
