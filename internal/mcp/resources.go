package mcp

import (
	"context"
	"net/url"
	"strings"
)

const (
	noteURIPrefix = "note://internal/"

	uriCurrent      = "datetime://current"
	uriToday        = "datetime://today"
	uriTime         = "datetime://time"
	uriTimezoneInfo = "datetime://timezone-info"
	uriSupported    = "datetime://supported-timezones"

	mimeText = "text/plain"
	mimeJSON = "application/json"
)

var datetimeResources = []Resource{
	{URI: uriCurrent, Name: "Current date and time", Description: "Current date and time in the server timezone", MimeType: mimeText},
	{URI: uriToday, Name: "Today's date", Description: "Today's date in the server timezone", MimeType: mimeText},
	{URI: uriTime, Name: "Current time", Description: "Current time of day in the server timezone", MimeType: mimeText},
	{URI: uriTimezoneInfo, Name: "Timezone information", Description: "UTC offset and DST state of the server timezone", MimeType: mimeJSON},
	{URI: uriSupported, Name: "Supported timezones", Description: "Known IANA timezones grouped by region", MimeType: mimeJSON},
}

func noteURI(name string) string {
	return noteURIPrefix + url.PathEscape(name)
}

func (s *Server) listResources(ctx context.Context) (any, *Error) {
	list, err := s.notes.List(ctx)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	out := make([]Resource, 0, len(list)+len(datetimeResources))
	for _, n := range list {
		out = append(out, Resource{
			URI:         noteURI(n.Name),
			Name:        "Note: " + n.Name,
			Description: "A simple note named " + n.Name,
			MimeType:    mimeText,
		})
	}
	out = append(out, datetimeResources...)
	return map[string]any{"resources": out}, nil
}

func (s *Server) readResource(ctx context.Context, uri string) (any, *Error) {
	text, mime, err := s.resourceText(ctx, uri)
	if err != nil {
		return nil, err
	}
	return map[string]any{"contents": []ResourceContents{{URI: uri, MimeType: mime, Text: text}}}, nil
}

func (s *Server) resourceText(ctx context.Context, uri string) (string, string, *Error) {
	if strings.HasPrefix(uri, noteURIPrefix) {
		name, err := url.PathUnescape(strings.TrimPrefix(uri, noteURIPrefix))
		if err != nil {
			return "", "", &Error{Code: CodeInvalidParams, Message: "malformed note uri: " + uri}
		}
		n, err := s.notes.Get(ctx, name)
		if err != nil {
			return "", "", &Error{Code: CodeInvalidParams, Message: "note not found: " + name}
		}
		return n.Content, mimeText, nil
	}

	zone := s.engine.DefaultZone()
	switch uri {
	case uriCurrent, uriToday, uriTime:
		now, err := s.engine.Now(zone)
		if err != nil {
			return "", "", &Error{Code: CodeInternalError, Message: err.Error()}
		}
		layout := map[string]string{
			uriCurrent: "2006-01-02 15:04:05",
			uriToday:   "2006-01-02",
			uriTime:    "15:04:05",
		}[uri]
		return now.Local().Format(layout), mimeText, nil
	case uriTimezoneInfo:
		info, err := s.engine.TimezoneInfo(zone)
		if err != nil {
			return "", "", &Error{Code: CodeInternalError, Message: err.Error()}
		}
		text, err := marshalText(info)
		if err != nil {
			return "", "", &Error{Code: CodeInternalError, Message: err.Error()}
		}
		return text, mimeJSON, nil
	case uriSupported:
		text, err := marshalText(s.engine.SupportedTimezones())
		if err != nil {
			return "", "", &Error{Code: CodeInternalError, Message: err.Error()}
		}
		return text, mimeJSON, nil
	}
	return "", "", &Error{Code: CodeInvalidParams, Message: "unknown resource: " + uri}
}
