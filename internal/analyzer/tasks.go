package analyzer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxTasks           = 10
	minSegmentLen      = 20
	maxSegmentLen      = 300
	minTaskLen         = 15
	maxTaskLen         = 200
	minNormalizedLen   = 10
	minDeadlineAction  = 10
	replyTask          = "Reply to email"
	attachedTaskPrefix = "Review attached "
)

var (
	urlPattern          = regexp.MustCompile(`https?://\S+`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
	sentenceSplit       = regexp.MustCompile(`[.!?]+`)
	trailingPunctuation = regexp.MustCompile(`[,;:]+$`)
	nonWordPattern      = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// taskRule is one entry of the ordered rule table. The first rule whose
// detect pattern (and requires pattern, when set) matches a segment owns it,
// even when extract then yields nothing.
type taskRule struct {
	name     string
	detect   *regexp.Regexp
	requires *regexp.Regexp
	extract  func(segment string) string
}

func (r taskRule) matches(segment string) bool {
	if !r.detect.MatchString(segment) {
		return false
	}
	return r.requires == nil || r.requires.MatchString(segment)
}

var (
	politeDetect  = regexp.MustCompile(`(?i)\b(please|kindly)\s+(review|approve|sign|submit|send|complete|update|check|confirm|read|look at)\b`)
	politeExtract = regexp.MustCompile(`(?i)(?:please|kindly)\s+(review|approve|sign|submit|send|complete|update|check|confirm|read|look at)\s+(.+)`)

	needDetect  = regexp.MustCompile(`(?i)\b(we need to|you need to|i need you to|need to)\s+`)
	needExtract = regexp.MustCompile(`(?i)(?:we need to|you need to|i need you to|need to)\s+(.+)`)

	reminderDetect  = regexp.MustCompile(`(?i)\b(don't forget to|remember to|make sure to)\s+`)
	reminderExtract = regexp.MustCompile(`(?i)(?:don't forget to|remember to|make sure to)\s+(.+)`)

	actionItemDetect  = regexp.MustCompile(`(?i)\baction item\b`)
	actionItemExtract = regexp.MustCompile(`(?i)action items?:?\s*(.+)`)

	scheduleDetect  = regexp.MustCompile(`(?i)\b(schedule|book|arrange|set up)\s+(?:a\s+)?(meeting|call|sync|discussion|demo|review)\b`)
	scheduleExtract = regexp.MustCompile(`(?i)(schedule|book|arrange|set up)\s+(?:a\s+)?(meeting|call|sync|discussion|demo|review)\s*(?:with\s+)?(.+)?`)

	deadlineDetect  = regexp.MustCompile(`(?i)\b(due|deadline|by|before)\s+(monday|tuesday|wednesday|thursday|friday|tomorrow|today|\d{1,2})`)
	deadlineExtract = regexp.MustCompile(`(?i)(.+?)\s+(?:is\s+)?(?:due|deadline|by|before)\s+(monday|tuesday|wednesday|thursday|friday|tomorrow|today|\d{1,2}[^.\n]*)`)

	replyDetect = regexp.MustCompile(`(?i)\b(awaiting|waiting for|looking forward to)\s+(?:your\s+)?(reply|response|feedback|input)`)

	attachedDetect  = regexp.MustCompile(`(?i)\b(attached|find attached|see attached|please find|enclosed)\b`)
	documentDetect  = regexp.MustCompile(`(?i)\b(document|file|report|proposal|invoice|contract|agreement)\b`)
	attachedExtract = regexp.MustCompile(`(?i)(?:attached|enclosed)[^.\n]*(document|file|report|proposal|invoice|contract|agreement)[^.\n]*`)
)

var taskRules = []taskRule{
	{
		name:   "polite-request",
		detect: politeDetect,
		extract: func(s string) string {
			m := politeExtract.FindStringSubmatch(s)
			if m == nil {
				return ""
			}
			return capitalizeWord(m[1]) + " " + m[2]
		},
	},
	{name: "need-to", detect: needDetect, extract: firstGroup(needExtract)},
	{name: "reminder", detect: reminderDetect, extract: firstGroup(reminderExtract)},
	{name: "action-item", detect: actionItemDetect, extract: firstGroup(actionItemExtract)},
	{
		name:   "schedule",
		detect: scheduleDetect,
		extract: func(s string) string {
			m := scheduleExtract.FindStringSubmatch(s)
			if m == nil {
				return ""
			}
			return strings.TrimSpace(capitalizeWord(m[1]) + " " + m[2] + " " + m[3])
		},
	},
	{
		name:   "deadline",
		detect: deadlineDetect,
		extract: func(s string) string {
			m := deadlineExtract.FindStringSubmatch(s)
			if m == nil {
				return ""
			}
			action := strings.TrimSpace(m[1])
			if utf8.RuneCountInString(action) <= minDeadlineAction {
				return ""
			}
			return action + " (Due " + m[2] + ")"
		},
	},
	{
		name:    "awaiting-reply",
		detect:  replyDetect,
		extract: func(string) string { return replyTask },
	},
	{
		name:     "attachment",
		detect:   attachedDetect,
		requires: documentDetect,
		extract: func(s string) string {
			m := attachedExtract.FindStringSubmatch(s)
			if m == nil {
				return ""
			}
			return attachedTaskPrefix + m[1]
		},
	},
}

func firstGroup(re *regexp.Regexp) func(string) string {
	return func(s string) string {
		m := re.FindStringSubmatch(s)
		if m == nil {
			return ""
		}
		return m[1]
	}
}

// ExtractTasks scans subject and body for actionable statements and returns
// at most MaxTasks of them, unique by NormalizeTask, in first-seen order.
func ExtractTasks(subject, body string) []string {
	text := subject + " " + body
	text = urlPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")

	var candidates []string
	for _, segment := range sentenceSplit.Split(text, -1) {
		segment = strings.TrimSpace(segment)
		n := utf8.RuneCountInString(segment)
		if n < minSegmentLen || n > maxSegmentLen {
			continue
		}

		for _, rule := range taskRules {
			if !rule.matches(segment) {
				continue
			}
			if task, ok := cleanTask(rule.extract(segment)); ok {
				candidates = append(candidates, task)
			}
			break
		}
	}

	return DedupTasks(candidates, MaxTasks)
}

// cleanTask collapses whitespace, strips trailing separators and capitalizes
// the first letter. Tasks outside [15, 200) characters are rejected.
func cleanTask(task string) (string, bool) {
	task = strings.TrimSpace(whitespacePattern.ReplaceAllString(task, " "))
	task = strings.TrimSpace(trailingPunctuation.ReplaceAllString(task, ""))
	if task == "" {
		return "", false
	}
	r, size := utf8.DecodeRuneInString(task)
	task = string(unicode.ToUpper(r)) + task[size:]

	n := utf8.RuneCountInString(task)
	if n < minTaskLen || n >= maxTaskLen {
		return "", false
	}
	return task, true
}

// NormalizeTask is the dedup key: lowercased, punctuation removed,
// whitespace collapsed.
func NormalizeTask(task string) string {
	normalized := nonWordPattern.ReplaceAllString(strings.ToLower(task), "")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(normalized, " "))
}

// DedupTasks keeps the first task for each normalized form, drops tasks whose
// normalized form is shorter than 10 characters, and stops at limit.
func DedupTasks(tasks []string, limit int) []string {
	seen := make(map[string]struct{}, len(tasks))
	unique := make([]string, 0, len(tasks))
	for _, task := range tasks {
		if len(unique) >= limit {
			break
		}
		key := NormalizeTask(task)
		if utf8.RuneCountInString(key) < minNormalizedLen {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, task)
	}
	return unique
}

func capitalizeWord(word string) string {
	if word == "" {
		return word
	}
	r, size := utf8.DecodeRuneInString(word)
	return string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
}
