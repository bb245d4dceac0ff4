package prompt

import "fmt"

// Structure asks the reasoning service to reorganize a flat contract into a
// hierarchical JSON document. The instruction wording is part of the cache
// contract: cached extractions were produced under exactly this prompt.
func Structure(document string) string {
	return "Could you reorganize this document into a structured json-file. " +
		"For each document part could you add a key 'keywords' which would contain " +
		"all insightful keywords, contract conditions, terms and sums of money. " +
		"Could you also add the original text for each document part in the 'text' key. " +
		`You must always output a JSON object with a "content" key. ` +
		"Document: " + document
}

// Keywords asks for the insightful terms, keywords and money sums of a text.
func Keywords(text string) string {
	return "Could you select all insightful terms, keywords and money sums out of this text. " +
		`You must always output a JSON object with a "keywords" key. ` +
		"Text: " + text
}

// Compliance builds the judgment prompt. The policy is fixed: nothing for
// satisfied conditions, a reason per violated condition, and an `ambiguous`
// prefix when compliance cannot be determined.
func Compliance(task, conditions string) string {
	return fmt.Sprintf(
		"You are provided with a contract text containing various terms and constraints for work execution "+
			"(e.g., budget constraints, types of allowable work, etc.). "+
			"You are also given a task that needs to be performed according to the contract. "+
			"The task description is accompanied by a cost estimate. "+
			"Your task is to analyze the task description for compliance with the contract conditions. "+
			"If the task description violates one or more conditions, you should specify the reason for the violation. "+
			"Do not add any other information besides the violations. "+
			"Do not add conditions that are met. "+
			"If it is unclear from the description of the completed work whether it may contradict the contract terms, "+
			"then add `ambiguous` to the beginning of response and tell why you are not sure. "+
			"Task: %s "+
			"Conditions: %s",
		task, conditions)
}
