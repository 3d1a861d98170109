package app

import (
	"sort"

	"trivia-chat-service/internal/domain"
)

const (
	msgRoundInProgress  = "❓ A round is in progress. What would you like to do?"
	msgNoActiveRound    = "ℹ️ There is no active game, use /start to begin."
	msgEmptyBank        = "❌ No questions are available right now."
	msgCycleReset       = "🎉 All questions have been shown! Starting over..."
	msgSurrendered      = "😔 You gave up! The correct answers were:"
	msgNoScores         = "📊 No scores recorded yet."
	msgUnauthorized     = "❌ Only admins can do that!"
	msgStoreUnavailable = "❌ The question store is unavailable, please try again later."
	msgCreationCancel   = "✏️ Question creation cancelled."
	msgCreationTimeout  = "⌛ Question creation timed out."
	msgNoPending        = "ℹ️ There is no question creation to cancel."
	msgGenericError     = "❌ Something went wrong, please try again."
	msgMalformed        = "❌ Invalid format! Send at least a question and one answer: Question|Answer1|Answer2"

	msgCreationPrompt = "✏️ Create a New Question\n\n" +
		"Send the question in this format:\n" +
		"Question|Answer1|Answer2|Answer3|...\n\n" +
		"Example:\n" +
		"Name a city in Indonesia|Jakarta|Bandung|Surabaya|Medan|Makassar\n\n" +
		"At least 1 answer is required. Send \"%s\" to abort."

	msgWelcome = "🤖 Trivia Bot\n\n" +
		"Hi, let's play a guessing game! Pick an option below."

	msgHelp = "🤖 Trivia Bot - Help\n\n" +
		"Available commands:\n" +
		"/start - start a game\n" +
		"/surrender - give up on the current question\n" +
		"/next - next question\n" +
		"/score - answers found in the current round\n" +
		"/points - your points\n" +
		"/topscore - global top scores\n" +
		"/rules - how to play\n" +
		"/stats - question bank statistics"

	msgRules = "📚 Rules\n\n" +
		"1. Use /start to begin a game\n" +
		"2. Answer by sending a text message\n" +
		"3. Each question has several correct answers\n" +
		"4. Each correct answer is worth 1 point\n" +
		"5. Use /next for the next question\n" +
		"6. Use /surrender to give up\n" +
		"7. Points are kept globally\n" +
		"8. Works in groups and private chats\n" +
		"9. Everyone in a group answers the same question"
)

func menuButtons(admin bool) []domain.Button {
	buttons := []domain.Button{
		{Label: "🎮 Start Game", Action: domain.ActionStart},
		{Label: "📖 Help", Action: domain.ActionHelp},
		{Label: "📊 Current Score", Action: domain.ActionScore},
		{Label: "⭐ My Points", Action: domain.ActionPoints},
		{Label: "🏆 Global Top Scores", Action: domain.ActionTopScore},
		{Label: "📚 Rules", Action: domain.ActionRules},
		{Label: "📈 Quiz Statistics", Action: domain.ActionStats},
	}
	if admin {
		buttons = append(buttons, domain.Button{Label: "✏️ Create Question", Action: domain.ActionCreateQuestion})
	}
	return buttons
}

func conflictButtons(promptID string) []domain.Button {
	return []domain.Button{
		{Label: "🏃 Surrender", Action: domain.ActionSurrender},
		{Label: "Keep Playing", Action: domain.ActionStay, Data: promptID},
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
