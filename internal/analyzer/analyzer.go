package analyzer

import "inbox-dashboard/internal/model"

// Analyze runs the categorizer, task extractor and event detector over one
// normalized message.
func Analyze(msg *model.NormalizedMessage) *model.AnalyzedEmail {
	return &model.AnalyzedEmail{
		NormalizedMessage: *msg,
		Category:          Categorize(msg.Subject, msg.Body),
		Tasks:             ExtractTasks(msg.Subject, msg.Body),
		Events:            DetectEvents(msg.Subject, msg.Body),
	}
}
