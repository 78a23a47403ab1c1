package goreadable

import "fmt"

// Article is a successful extraction result.
//
// Optional fields are plain strings: the bundle normalizes absent values to
// null on the wire and null decodes to the empty string, so empty means
// "the document did not carry this".
type Article struct {
	// Title of the article; empty when the document had none.
	Title string `json:"title"`
	// Byline names the author or authors.
	Byline string `json:"byline,omitempty"`
	// Dir is the content direction ("ltr" or "rtl") when declared.
	Dir string `json:"dir,omitempty"`
	// Lang is the document language when declared.
	Lang string `json:"lang,omitempty"`
	// Content is the cleaned article HTML.
	Content string `json:"content"`
	// TextContent is the plain text of Content.
	TextContent string `json:"textContent"`
	// Excerpt is a short description or the first paragraph.
	Excerpt string `json:"excerpt,omitempty"`
	// SiteName is the publishing site's name.
	SiteName string `json:"siteName,omitempty"`
	// PublishedTime is the publication timestamp as found in metadata.
	PublishedTime string `json:"publishedTime,omitempty"`
	// Length is the character count of TextContent.
	Length int `json:"length"`
}

// decodeResult turns the exported engine value into an Article or a typed
// error. The discriminant is the presence of the errorType key: without it
// the payload is an article, with it the payload is one of the three
// input-level failures. Anything that does not decode cleanly is an engine
// fault, never silently patched over.
func decodeResult(raw any) (*Article, error) {
	payload, ok := raw.(map[string]any)
	if !ok {
		return nil, &Error{
			Kind:    KindEngine,
			Message: fmt.Sprintf("unexpected result shape %T from bundle", raw),
		}
	}
	if tag, present := payload["errorType"]; present {
		return nil, decodeFailure(payload, tag)
	}
	return decodeArticle(payload)
}

func decodeFailure(payload map[string]any, tag any) error {
	name, ok := tag.(string)
	if !ok {
		return &Error{
			Kind:    KindEngine,
			Message: fmt.Sprintf("malformed error tag of type %T", tag),
		}
	}
	message, _ := payload["error"].(string)
	if message == "" {
		message = "unknown failure"
	}
	switch name {
	case "HtmlParseError":
		return &Error{Kind: KindHTMLParse, Message: message}
	case "RuntimeError":
		return &Error{Kind: KindRuntime, Message: message}
	case "ExtractionError":
		return &Error{Kind: KindExtraction, Message: message}
	default:
		return &Error{
			Kind:    KindEngine,
			Message: fmt.Sprintf("unrecognized error type %q: %s", name, message),
		}
	}
}

func decodeArticle(payload map[string]any) (*Article, error) {
	var (
		a   Article
		err error
	)
	if a.Title, err = requiredString(payload, "title"); err != nil {
		return nil, err
	}
	if a.Content, err = requiredString(payload, "content"); err != nil {
		return nil, err
	}
	if a.TextContent, err = requiredString(payload, "textContent"); err != nil {
		return nil, err
	}
	if a.Length, err = requiredInt(payload, "length"); err != nil {
		return nil, err
	}
	if a.Byline, err = optionalString(payload, "byline"); err != nil {
		return nil, err
	}
	if a.Dir, err = optionalString(payload, "dir"); err != nil {
		return nil, err
	}
	if a.Lang, err = optionalString(payload, "lang"); err != nil {
		return nil, err
	}
	if a.Excerpt, err = optionalString(payload, "excerpt"); err != nil {
		return nil, err
	}
	if a.SiteName, err = optionalString(payload, "siteName"); err != nil {
		return nil, err
	}
	if a.PublishedTime, err = optionalString(payload, "publishedTime"); err != nil {
		return nil, err
	}
	return &a, nil
}

func requiredString(payload map[string]any, key string) (string, error) {
	v, present := payload[key]
	if !present || v == nil {
		return "", &Error{
			Kind:    KindEngine,
			Message: fmt.Sprintf("result field %q missing", key),
		}
	}
	s, ok := v.(string)
	if !ok {
		return "", &Error{
			Kind:    KindEngine,
			Message: fmt.Sprintf("result field %q has type %T, want string", key, v),
		}
	}
	return s, nil
}

func optionalString(payload map[string]any, key string) (string, error) {
	v, present := payload[key]
	if !present || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &Error{
			Kind:    KindEngine,
			Message: fmt.Sprintf("result field %q has type %T, want string or null", key, v),
		}
	}
	return s, nil
}

func requiredInt(payload map[string]any, key string) (int, error) {
	v, present := payload[key]
	if !present || v == nil {
		return 0, &Error{
			Kind:    KindEngine,
			Message: fmt.Sprintf("result field %q missing", key),
		}
	}
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, &Error{
			Kind:    KindEngine,
			Message: fmt.Sprintf("result field %q has type %T, want number", key, v),
		}
	}
}
