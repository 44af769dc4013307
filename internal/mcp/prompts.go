package mcp

import (
	"context"
	"fmt"
	"strings"
)

var promptList = []Prompt{
	{
		Name:        "summarize-notes",
		Description: "Creates a summary of all notes",
		Arguments:   []PromptArgument{{Name: "style", Description: "Style of the summary (brief/detailed)"}},
	},
	{
		Name:        "schedule-event",
		Description: "Helps schedule an event at a specific time",
		Arguments: []PromptArgument{
			{Name: "event", Description: "Name of the event to schedule", Required: true},
			{Name: "time", Description: "Time for the event (HH:MM format)", Required: true},
		},
	},
	{
		Name:        "datetime-calculation-guide",
		Description: "Examples and guidance on when and how to use the date calculation tools",
		Arguments:   []PromptArgument{{Name: "scenario", Description: "Specific scenario or use case"}},
	},
	{
		Name:        "business-day-rules",
		Description: "Business day calculation rules, weekend patterns and holiday handling",
		Arguments:   []PromptArgument{{Name: "region", Description: "Region or country for business day rules"}},
	},
	{
		Name:        "timezone-best-practices",
		Description: "Guidelines for timezone-aware date operations and common pitfalls",
		Arguments:   []PromptArgument{{Name: "operation_type", Description: "Type of operation (calculation/formatting/storage/comparison)"}},
	},
}

func promptByName(name string) (Prompt, bool) {
	for _, p := range promptList {
		if p.Name == name {
			return p, true
		}
	}
	return Prompt{}, false
}

func userMessage(text string) []PromptMessage {
	return []PromptMessage{{Role: "user", Content: Content{Type: "text", Text: text}}}
}

func (s *Server) getPrompt(ctx context.Context, name string, args map[string]string) (any, *Error) {
	p, ok := promptByName(name)
	if !ok {
		return nil, &Error{Code: CodeInvalidParams, Message: "unknown prompt: " + name}
	}
	for _, a := range p.Arguments {
		if a.Required && strings.TrimSpace(args[a.Name]) == "" {
			return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("prompt %s requires argument %q", name, a.Name)}
		}
	}

	var text string
	switch name {
	case "summarize-notes":
		list, err := s.notes.List(ctx)
		if err != nil {
			return nil, &Error{Code: CodeInternalError, Message: err.Error()}
		}
		detail := ""
		if args["style"] == "detailed" {
			detail = " Give extensive details."
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Here are the current notes to summarize:%s\n\n", detail)
		for _, n := range list {
			fmt.Fprintf(&b, "- %s: %s\n", n.Name, n.Content)
		}
		text = b.String()
	case "schedule-event":
		now, err := s.engine.Now(s.engine.DefaultZone())
		if err != nil {
			return nil, &Error{Code: CodeInternalError, Message: err.Error()}
		}
		text = fmt.Sprintf("Today is %s (%s). Schedule the event %q at %s today. "+
			"If that time has already passed (current time %s), schedule it for tomorrow instead "+
			"and use calculate-date to get the exact date.",
			now.Local().Format("2006-01-02"), now.Zone(), args["event"], args["time"], now.Local().Format("15:04"))
	case "datetime-calculation-guide":
		text = calculationGuide(args["scenario"])
	case "business-day-rules":
		text = businessDayRules(args["region"])
	case "timezone-best-practices":
		text = timezoneBestPractices(args["operation_type"])
	}
	return PromptResult{Description: p.Description, Messages: userMessage(text)}, nil
}

func calculationGuide(scenario string) string {
	var b strings.Builder
	b.WriteString("Use the date tools instead of reasoning about dates yourself.\n\n")
	b.WriteString("- calculate-date: shift a date, e.g. base_date=2024-01-31, operation=add, amount=1, unit=months gives 2024-02-29 (day clamped to month end).\n")
	b.WriteString("- calculate-date-range: direction=last, amount=7, unit=days gives the week ending on the reference date; next gives the one starting there.\n")
	b.WriteString("- calculate-business-days: counts weekdays in an inclusive interval minus holidays.\n")
	b.WriteString("- list-business-days: the same interval, returning the dates themselves.\n")
	b.WriteString("- get-current-datetime: fetch 'now' first whenever a request says today, tomorrow or next week.\n")
	b.WriteString("- format-date: re-render an ISO date with a strftime pattern such as %A, %B %d, %Y.\n")
	if scenario != "" {
		fmt.Fprintf(&b, "\nApply this to the scenario: %s\n", scenario)
	}
	return b.String()
}

func businessDayRules(region string) string {
	var b strings.Builder
	b.WriteString("Business days are calendar days that are neither weekend days nor listed holidays. ")
	b.WriteString("Both start_date and end_date are counted when they are business days.\n\n")
	b.WriteString("weekend_pattern values:\n")
	b.WriteString("- saturday-sunday: most of the Americas, Europe and East Asia (default)\n")
	b.WriteString("- friday-saturday: much of the Middle East and North Africa\n")
	b.WriteString("- thursday-friday: a few countries historically, e.g. Afghanistan\n\n")
	b.WriteString("Holidays are passed per call as YYYY-MM-DD dates; a holiday on a weekend day is not subtracted twice.\n")
	if region != "" {
		fmt.Fprintf(&b, "\nCheck the official public holiday calendar for %s and pass its dates as holidays.\n", region)
	}
	return b.String()
}

func timezoneBestPractices(op string) string {
	tips := map[string]string{
		"calculation": "Do arithmetic on calendar dates, then attach a timezone. Adding a day across a DST change keeps the wall-clock time, not 24 hours.",
		"formatting":  "Always print the UTC offset (iso or rfc3339) when a value leaves the system; readable output drops it.",
		"storage":     "Store instants in UTC together with the IANA zone name, never a bare offset or abbreviation.",
		"comparison":  "Compare instants, not wall-clock strings; convert both sides to UTC first.",
	}
	var b strings.Builder
	b.WriteString("Use IANA identifiers such as America/New_York, not abbreviations like EST. ")
	b.WriteString("The timezone parameter defaults to UTC.\n\n")
	if tip, ok := tips[strings.ToLower(op)]; ok {
		b.WriteString(tip)
		b.WriteByte('\n')
		return b.String()
	}
	for _, k := range []string{"calculation", "formatting", "storage", "comparison"} {
		fmt.Fprintf(&b, "- %s: %s\n", k, tips[k])
	}
	return b.String()
}
