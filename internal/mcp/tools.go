package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"datecalc/internal/calc"
	"datecalc/internal/ics"
	appLog "datecalc/internal/log"
	"datecalc/internal/notes"
)

type toolHandler func(ctx context.Context, args Args) (string, error)

type toolDef struct {
	Tool
	handler toolHandler
}

func schema(required []string, props map[string]any) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func strProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func enumProp(desc string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": desc, "enum": values}
}

func intProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "description": desc}
}

var (
	unitProp     = enumProp("Time unit", "days", "weeks", "months", "years")
	timezoneProp = strProp("IANA timezone identifier, e.g. America/New_York. Defaults to UTC.")
	weekendProp  = enumProp("Weekend days", "saturday-sunday", "friday-saturday", "thursday-friday")
	holidaysProp = map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": "Holiday dates (YYYY-MM-DD) excluded from business days",
	}
	rangeProps = map[string]any{
		"reference_date": strProp("Reference date (YYYY-MM-DD or ISO datetime)"),
		"base_date":      strProp("Alias of reference_date"),
		"direction":      enumProp("Range direction relative to the reference date", "last", "next"),
		"amount":         intProp("Number of units"),
		"unit":           unitProp,
		"timezone":       timezoneProp,
	}
	businessProps = map[string]any{
		"start_date":      strProp("First day of the interval (inclusive)"),
		"end_date":        strProp("Last day of the interval (inclusive)"),
		"holidays":        holidaysProp,
		"weekend_pattern": weekendProp,
		"timezone":        strProp("Accepted for compatibility and ignored"),
	}
)

func (s *Server) buildTools() []toolDef {
	return []toolDef{
		{Tool{"add-note", "Add or update a named note", schema([]string{"name", "content"}, map[string]any{
			"name":    strProp("Note name (max 255 characters)"),
			"content": strProp("Note content (max 10KB)"),
		})}, s.addNote},
		{Tool{"get-note", "Get the content of a note", schema([]string{"name"}, map[string]any{
			"name": strProp("Note name"),
		})}, s.getNote},
		{Tool{"list-notes", "List all stored notes", schema(nil, map[string]any{})}, s.listNotes},
		{Tool{"delete-note", "Delete a note", schema([]string{"name"}, map[string]any{
			"name": strProp("Note name"),
		})}, s.deleteNote},
		{Tool{"get-current-datetime", "Get the current date and time in a timezone and format", schema(nil, map[string]any{
			"timezone":      timezoneProp,
			"format":        enumProp("Output format", "iso", "readable", "unix", "rfc3339", "json", "custom"),
			"custom_format": strProp("strftime pattern, required when format is custom"),
		})}, s.currentDateTime},
		{Tool{"get-current-time", "Get the current time (legacy single-format variant)", schema([]string{"format"}, map[string]any{
			"format":   enumProp("Output format", "iso", "readable", "unix", "rfc3339"),
			"timezone": timezoneProp,
		})}, s.currentTime},
		{Tool{"format-date", "Re-render an ISO date with a named format or strftime pattern", schema([]string{"date", "format"}, map[string]any{
			"date":   strProp("Date or datetime in ISO-8601"),
			"format": strProp("iso, date, rfc3339, readable, unix, or a strftime pattern"),
		})}, s.formatDate},
		{Tool{"calculate-date", "Add or subtract days, weeks, months or years", schema([]string{"base_date", "operation", "amount", "unit"}, map[string]any{
			"base_date": strProp("Start date (YYYY-MM-DD or ISO datetime)"),
			"operation": enumProp("Operation", "add", "subtract"),
			"amount":    intProp("Number of units"),
			"unit":      unitProp,
			"timezone":  timezoneProp,
		})}, s.calculateDate},
		{Tool{"calculate-date-range", "Compute the range of the last or next N units around a date", schema([]string{"direction", "amount", "unit"}, rangeProps)}, s.calculateDateRange},
		{Tool{"calculate-business-days", "Count business days in an inclusive interval", schema([]string{"start_date", "end_date"}, businessProps)}, s.businessDays},
		{Tool{"list-business-days", "List the business days of an inclusive interval", schema([]string{"start_date", "end_date"}, businessProps)}, s.listBusinessDays},
		{Tool{"export-date-range-ics", "Export a derived date range as an all-day iCalendar event", schema([]string{"direction", "amount", "unit"}, withSummary(rangeProps))}, s.exportRangeICS},
	}
}

func withSummary(props map[string]any) map[string]any {
	out := make(map[string]any, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	out["summary"] = strProp("Event summary")
	return out
}

func (s *Server) listTools() map[string]any {
	tools := make([]Tool, len(s.tools))
	for i, t := range s.tools {
		tools[i] = t.Tool
	}
	return map[string]any{"tools": tools}
}

// CallTool runs a tool. Unknown tools are a protocol error; failures inside a
// tool are a result with IsError set.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]json.RawMessage) (ToolResult, *Error) {
	t, ok := s.toolByID[name]
	if !ok {
		return ToolResult{}, &Error{Code: CodeInvalidParams, Message: "unknown tool: " + name}
	}
	text, err := t.handler(ctx, Args(args))
	if err != nil {
		body, internal := toolErrorBody(err)
		if internal {
			appLog.Error("tool failed", err, "tool", name)
		} else {
			appLog.Debug("tool rejected input", "tool", name, "err", err.Error())
		}
		return ToolResult{Content: []Content{{Type: "text", Text: body}}, IsError: true}, nil
	}
	return ToolResult{Content: []Content{{Type: "text", Text: text}}}, nil
}

type toolError struct {
	Error     string `json:"error"`
	Parameter string `json:"parameter,omitempty"`
	Message   string `json:"message"`
}

// toolErrorBody renders err as the JSON error body; internal reports errors
// that are not caused by caller input.
func toolErrorBody(err error) (body string, internal bool) {
	var te toolError
	var ce *calc.Error
	switch {
	case errors.As(err, &ce):
		te = toolError{Error: string(ce.Kind), Parameter: ce.Param, Message: ce.Message}
	case errors.Is(err, notes.ErrNotFound):
		te = toolError{Error: "NotFound", Parameter: "name", Message: err.Error()}
	case errors.Is(err, notes.ErrInvalidNote):
		te = toolError{Error: string(calc.KindInvalidParameter), Message: err.Error()}
	default:
		te = toolError{Error: "InternalError", Message: err.Error()}
		internal = true
	}
	data, _ := json.Marshal(te)
	return string(data), internal
}

func marshalText(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Server) addNote(ctx context.Context, args Args) (string, error) {
	name, err := args.RequiredString("name")
	if err != nil {
		return "", err
	}
	content, err := args.RequiredString("content")
	if err != nil {
		return "", err
	}
	res, err := s.notes.Put(ctx, name, content)
	if err != nil {
		return "", err
	}
	count, err := s.notes.Len(ctx)
	if err != nil {
		return "", err
	}

	action := "Added"
	if res.Updated {
		action = "Updated"
	}
	appLog.Info("note stored", "name", res.Note.Name, "bytes", len(content), "updated", res.Updated)
	s.broadcast(MethodResourceListChanged)

	text := fmt.Sprintf("%s note '%s' with %d characters. Total notes: %d/%d",
		action, res.Note.Name, len([]rune(content)), count, s.notes.Limits().MaxNotes)
	if res.Evicted != "" {
		text += fmt.Sprintf(". Evicted least recently used note '%s'", res.Evicted)
	}
	return text, nil
}

func (s *Server) getNote(ctx context.Context, args Args) (string, error) {
	name, err := args.RequiredString("name")
	if err != nil {
		return "", err
	}
	n, err := s.notes.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return n.Content, nil
}

func (s *Server) listNotes(ctx context.Context, _ Args) (string, error) {
	list, err := s.notes.List(ctx)
	if err != nil {
		return "", err
	}
	return marshalText(list)
}

func (s *Server) deleteNote(ctx context.Context, args Args) (string, error) {
	name, err := args.RequiredString("name")
	if err != nil {
		return "", err
	}
	if err := s.notes.Delete(ctx, name); err != nil {
		return "", err
	}
	appLog.Info("note deleted", "name", name)
	s.broadcast(MethodResourceListChanged)
	return fmt.Sprintf("Deleted note '%s'", name), nil
}

func (s *Server) currentDateTime(_ context.Context, args Args) (string, error) {
	var req calc.CurrentRequest
	var err error
	if req.Timezone, err = args.String("timezone"); err != nil {
		return "", err
	}
	if req.Format, err = args.String("format"); err != nil {
		return "", err
	}
	if req.CustomFormat, err = args.String("custom_format"); err != nil {
		return "", err
	}
	return s.engine.CurrentDateTime(req)
}

func (s *Server) currentTime(_ context.Context, args Args) (string, error) {
	format, err := args.String("format")
	if err != nil {
		return "", err
	}
	tz, err := args.String("timezone")
	if err != nil {
		return "", err
	}
	return s.engine.CurrentTime(format, tz)
}

func (s *Server) formatDate(_ context.Context, args Args) (string, error) {
	date, err := args.RequiredString("date")
	if err != nil {
		return "", err
	}
	format, err := args.RequiredString("format")
	if err != nil {
		return "", err
	}
	return s.engine.FormatDate(calc.FormatRequest{Date: date, Format: format})
}

func (s *Server) calculateDate(_ context.Context, args Args) (string, error) {
	var req calc.DateRequest
	var err error
	if req.BaseDate, err = args.RequiredString("base_date"); err != nil {
		return "", err
	}
	if req.Operation, err = args.RequiredString("operation"); err != nil {
		return "", err
	}
	if req.Amount, err = args.Amount("amount"); err != nil {
		return "", err
	}
	if req.Unit, err = args.RequiredString("unit"); err != nil {
		return "", err
	}
	if req.Timezone, err = args.String("timezone"); err != nil {
		return "", err
	}
	return s.engine.CalculateDate(req)
}

func rangeRequest(args Args) (calc.RangeRequest, error) {
	var req calc.RangeRequest
	var err error
	if req.ReferenceDate, err = args.FirstString("reference_date", "base_date"); err != nil {
		return req, err
	}
	if req.Direction, err = args.RequiredString("direction"); err != nil {
		return req, err
	}
	if req.Amount, err = args.Amount("amount"); err != nil {
		return req, err
	}
	if req.Unit, err = args.RequiredString("unit"); err != nil {
		return req, err
	}
	if req.Timezone, err = args.String("timezone"); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Server) calculateDateRange(_ context.Context, args Args) (string, error) {
	req, err := rangeRequest(args)
	if err != nil {
		return "", err
	}
	r, err := s.engine.CalculateDateRange(req)
	if err != nil {
		return "", err
	}
	return marshalText(r)
}

func businessRequest(args Args) (calc.BusinessDaysRequest, error) {
	var req calc.BusinessDaysRequest
	var err error
	if req.StartDate, err = args.RequiredString("start_date"); err != nil {
		return req, err
	}
	if req.EndDate, err = args.RequiredString("end_date"); err != nil {
		return req, err
	}
	if req.Holidays, err = args.StringList("holidays"); err != nil {
		return req, err
	}
	if req.WeekendPattern, err = args.String("weekend_pattern"); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Server) businessDays(_ context.Context, args Args) (string, error) {
	req, err := businessRequest(args)
	if err != nil {
		return "", err
	}
	res, err := s.engine.CountBusinessDays(req)
	if err != nil {
		return "", err
	}
	return marshalText(res)
}

func (s *Server) listBusinessDays(_ context.Context, args Args) (string, error) {
	req, err := businessRequest(args)
	if err != nil {
		return "", err
	}
	res, err := s.engine.ListBusinessDays(req)
	if err != nil {
		return "", err
	}
	return marshalText(res)
}

func (s *Server) exportRangeICS(_ context.Context, args Args) (string, error) {
	req, err := rangeRequest(args)
	if err != nil {
		return "", err
	}
	summary, err := args.String("summary")
	if err != nil {
		return "", err
	}
	r, err := s.engine.ResolveRange(req)
	if err != nil {
		return "", err
	}
	now, err := s.engine.Now("")
	if err != nil {
		return "", err
	}
	return ics.Export(ics.RangeEvent{Range: r.Days(), Summary: summary, Stamp: now.UTC()})
}
