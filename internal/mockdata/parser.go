// Package mockdata extracts task and team member records from the frontend's
// TypeScript fixture file. The file is first-party and its shape is fixed, so
// parsing is regex and bracket matching rather than a real TS parser.
package mockdata

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// SuggestionStub references a member the fixture already proposes for a task,
// with the stated reason. The batch scorer turns these pairs into real scores.
type SuggestionStub struct {
	MemberID      string `mapstructure:"memberId"`
	ContextReason string `mapstructure:"contextReason"`
}

type TaskRecord struct {
	ID          string           `mapstructure:"id"`
	Title       string           `mapstructure:"title"`
	Priority    string           `mapstructure:"priority"`
	Status      string           `mapstructure:"status"`
	Suggestions []SuggestionStub `mapstructure:"suggestions"`
}

type MemberRecord struct {
	ID     string   `mapstructure:"id"`
	Name   string   `mapstructure:"name"`
	Role   string   `mapstructure:"role"`
	Skills []string `mapstructure:"skills"`
}

var (
	tasksArrayPattern   = regexp.MustCompile(`(?s)export const atRiskTasks[^=]*=\s*\[(.+?)\];`)
	membersArrayPattern = regexp.MustCompile(`(?s)export const teamMembers[^=]*=\s*\[(.+)\];`)
	suggestionsPattern  = regexp.MustCompile(`(?s)suggestions:\s*\[(.+?)\]`)
	quotedListPattern   = regexp.MustCompile(`['"]([^'"]+)['"]`)
)

// Parse extracts the atRiskTasks and teamMembers arrays from fixture source.
// Members are keyed by id; only mem- prefixed ids are real team members, the
// rest are display placeholders. A missing array is a hard error: the fixture
// is checked in next to the code, so a parse failure means the fixture moved.
func Parse(source string) ([]*TaskRecord, map[string]*MemberRecord, error) {
	tasksMatch := tasksArrayPattern.FindStringSubmatch(source)
	if tasksMatch == nil {
		return nil, nil, fmt.Errorf("could not locate atRiskTasks array in fixture")
	}

	var tasks []*TaskRecord
	for _, block := range splitObjects(tasksMatch[1]) {
		raw := map[string]any{
			"id":       strField(block, "id"),
			"title":    strField(block, "title"),
			"priority": strField(block, "priority"),
			"status":   strField(block, "status"),
		}
		if raw["id"] == "" {
			continue
		}

		var stubs []map[string]any
		if sugg := suggestionsPattern.FindStringSubmatch(block); sugg != nil {
			for _, s := range splitObjects(sugg[1]) {
				memberID := strField(s, "memberId")
				if memberID == "" {
					continue
				}
				stubs = append(stubs, map[string]any{
					"memberId":      memberID,
					"contextReason": strField(s, "contextReason"),
				})
			}
		}
		raw["suggestions"] = stubs

		var task TaskRecord
		if err := mapstructure.Decode(raw, &task); err != nil {
			return nil, nil, fmt.Errorf("decoding task record: %w", err)
		}
		tasks = append(tasks, &task)
	}

	membersMatch := membersArrayPattern.FindStringSubmatch(source)
	if membersMatch == nil {
		return nil, nil, fmt.Errorf("could not locate teamMembers array in fixture")
	}

	members := make(map[string]*MemberRecord)
	for _, block := range splitObjects(membersMatch[1]) {
		id := strField(block, "id")
		if !strings.HasPrefix(id, "mem-") {
			continue
		}

		name := strField(block, "name")
		if name == "" {
			name = id
		}

		var member MemberRecord
		if err := mapstructure.Decode(map[string]any{
			"id":     id,
			"name":   name,
			"role":   strField(block, "role"),
			"skills": listField(block, "skills"),
		}, &member); err != nil {
			return nil, nil, fmt.Errorf("decoding member record: %w", err)
		}
		members[id] = &member
	}

	return tasks, members, nil
}

// splitObjects cuts an array body into its top-level { } object substrings,
// tracking brace depth so nested objects stay attached to their parent.
func splitObjects(block string) []string {
	var objects []string
	depth := 0
	start := -1
	for i, ch := range block {
		switch ch {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				objects = append(objects, block[start:i+1])
				start = -1
			}
		}
	}
	return objects
}

// strField extracts a single-quoted or double-quoted scalar field value.
func strField(text, field string) string {
	pattern := regexp.MustCompile(regexp.QuoteMeta(field) + `:\s*(?:'([^']*)'|"([^"]*)")`)
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}

// listField extracts a string array field, e.g. skills: ['a', 'b'].
func listField(text, field string) []string {
	pattern := regexp.MustCompile(regexp.QuoteMeta(field) + `:\s*\[([^\]]+)\]`)
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}

	var values []string
	for _, m := range quotedListPattern.FindAllStringSubmatch(match[1], -1) {
		values = append(values, m[1])
	}
	return values
}
