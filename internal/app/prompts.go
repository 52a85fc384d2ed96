package app

import "fmt"

// Generation prompts. Each instructs the model to return bare JSON; the
// validator strips code fences anyway because models do not always comply.

func dailyQuizPrompt(topic string) string {
	return fmt.Sprintf("Generate one random general-knowledge quiz question on the topic '%s' suitable for daily practice. "+
		"Provide the question and 4 multiple-choice options in random order. "+
		"Return the result in JSON format with keys: \"question\", \"options\", \"correct_index\". "+
		"Do not include any additional text.", topic)
}

func enhanceQuestionPrompt(question string) string {
	return fmt.Sprintf("Given the simple question: %q, perform the following steps:\n"+
		"Step 1: Rephrase the question to make it more formal and engaging.\n"+
		"Step 2: Generate one correct option and three incorrect options.\n"+
		"Step 3: Randomly shuffle the four options.\n"+
		"Step 4: Return a JSON object with exactly three keys:\n"+
		"  - \"question\": the enhanced question,\n"+
		"  - \"options\": an array of exactly 4 option strings,\n"+
		"  - \"correct_index\": the 0-indexed position of the correct answer.\n"+
		"Do not include any additional text, commentary, or explanation.", question)
}

func mockTestPrompt(topic string) string {
	return fmt.Sprintf("Generate 5 multiple-choice questions for a mock test on the topic '%s'. "+
		"For each question provide 4 options and indicate the correct answer. "+
		"Return the result as a JSON array of objects with keys \"question\", "+
		"\"options\" (exactly 4 strings) and \"correct_index\" (0-indexed). "+
		"Do not include any extra text.", topic)
}

const flashcardPrompt = "Generate a general-knowledge flashcard for exam preparation. " +
	"Return the result in JSON format with exactly two keys: \"question\" and \"answer\". " +
	"Do not include any additional text."
