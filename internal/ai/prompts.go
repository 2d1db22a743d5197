package ai

import (
	"fmt"
	"strings"

	"worktrack/internal/domain"
)

func storyEnhancementPrompt(s domain.Story) string {
	return fmt.Sprintf(`Review the following success story written in STAR format and provide specific, actionable suggestions for improvement:

**Situation:**
%s

**Task:**
%s

**Action:**
%s

**Result:**
%s

Please provide:
1. Specific suggestions to make each section more impactful and quantifiable
2. Recommendations for adding metrics or measurable outcomes
3. Ways to better highlight leadership, innovation, or technical expertise

Format your response as JSON with the following structure:
{
    "situation_suggestions": ["..."],
    "task_suggestions": ["..."],
    "action_suggestions": ["..."],
    "result_suggestions": ["..."],
    "overall_suggestions": ["..."],
    "impact_score": <1-10>,
    "completeness_score": <1-10>
}`, s.Situation, s.Task, s.Action, s.Result)
}

func orEmpty(v string) string {
	if strings.TrimSpace(v) == "" {
		return "[EMPTY]"
	}
	return v
}

func completenessPrompt(s domain.Story) string {
	return fmt.Sprintf(`Analyze the following STAR format story for completeness and identify any missing or weak elements:

**Situation:**
%s

**Task:**
%s

**Action:**
%s

**Result:**
%s

Evaluate each section and provide whether it is complete, what is missing, an overall completeness percentage, and priority areas to address first.

Format your response as JSON:
{
    "situation_complete": <true/false>,
    "situation_missing": ["..."],
    "task_complete": <true/false>,
    "task_missing": ["..."],
    "action_complete": <true/false>,
    "action_missing": ["..."],
    "result_complete": <true/false>,
    "result_missing": ["..."],
    "completeness_percentage": <0-100>,
    "priority_improvements": ["..."]
}`, orEmpty(s.Situation), orEmpty(s.Task), orEmpty(s.Action), orEmpty(s.Result))
}

func reportPrompt(reportType, periodStart, periodEnd string, activities []domain.Activity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %s professional activity report for the period %s to %s based on the following activities:\n\n", reportType, periodStart, periodEnd)
	for _, a := range activities {
		fmt.Fprintf(&b, "- %s [%s] on %s", a.Title, a.Category, a.Date)
		if a.ImpactLevel != nil {
			fmt.Fprintf(&b, " (impact %d/5)", *a.ImpactLevel)
		}
		if a.Description != "" {
			fmt.Fprintf(&b, ": %s", a.Description)
		}
		if len(a.Tags) > 0 {
			fmt.Fprintf(&b, " tags: %s", strings.Join(a.Tags, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString(`
The report should include an Executive Summary, Key Achievements, a breakdown by category, and Recommendations. Write it in Markdown.`)
	return b.String()
}

func calendarPrompt(ev domain.CalendarEvent) string {
	return fmt.Sprintf(`Analyze this calendar event and suggest a professional activity entry:

Title: %s
Description: %s
Start: %s
End: %s
Attendees: %s

Choose the best category from: %s.

Format your response as JSON:
{
    "suggested_title": "...",
    "suggested_description": "...",
    "suggested_category": "...",
    "suggested_tags": ["..."],
    "confidence": <0.0-1.0>,
    "reasoning": "..."
}`, ev.Title, orEmpty(ev.Description), ev.Start, ev.End, strings.Join(ev.Attendees, ", "), strings.Join(domain.ActivityCategories, ", "))
}
