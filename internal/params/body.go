package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	mediaMultipart  = "multipart/form-data"
	mediaForm       = "application/x-www-form-urlencoded"
	defaultTextMIME = "text/plain"
)

// ExtractBody decodes a request body into a parameter bag.
//
// A non-nil parsed value is a body the hosting environment already decoded
// and is returned unchanged (wrapped under BodyKey unless it is a map).
// Otherwise the body is decoded according to contentType.
func ExtractBody(contentType string, body []byte, parsed any) Params {
	if parsed != nil {
		switch v := parsed.(type) {
		case Params:
			return v
		case map[string]any:
			return Params(v)
		default:
			return Params{BodyKey: v}
		}
	}

	if len(body) == 0 {
		return Params{}
	}

	mediaType, mediaParams, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
		mediaParams = nil
	}
	charset := mediaParams["charset"]

	switch mediaType {
	case mediaMultipart:
		if out, err := extractMultipart(body, mediaParams["boundary"]); err == nil {
			return out
		}
		return Params{BodyKey: decodeText(body, charset)}
	case mediaForm:
		return extractForm(body, charset)
	default:
		return extractText(decodeText(body, charset))
	}
}

// extractText decodes a JSON object into named fields. Any other payload is
// exposed under BodyKey.
func extractText(text string) Params {
	if strings.TrimSpace(text) == "" {
		return Params{}
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return Params{BodyKey: text}
	}
	if obj, ok := v.(map[string]any); ok {
		return Params(obj)
	}
	return Params{BodyKey: v}
}

// extractForm decodes an urlencoded body. Keys and values are split on the
// first '='; pairs with an empty key are skipped.
func extractForm(body []byte, charset string) Params {
	out := make(Params)
	for _, pair := range strings.Split(string(body), "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key = unescapeForm(key, charset)
		if key == "" {
			continue
		}
		out[key] = unescapeForm(value, charset)
	}
	return out
}

func unescapeForm(s, charset string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		decoded = s
	}
	return decodeText([]byte(decoded), charset)
}

var errMissingBoundary = errors.New("multipart boundary missing")

// extractMultipart decodes a multipart/form-data body.
func extractMultipart(body []byte, boundary string) (Params, error) {
	if boundary == "" {
		return nil, errMissingBoundary
	}

	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	out := make(Params)

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return partialMultipart(out, err)
		}

		name := part.FormName()
		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return partialMultipart(out, err)
		}
		if name == "" {
			continue
		}

		out[name] = newPart(data, part.FileName(), part.Header.Get("Content-Type"))
	}

	return out, nil
}

// partialMultipart keeps the parts decoded before a malformed one. The error
// is reported only when nothing was decoded.
func partialMultipart(out Params, err error) (Params, error) {
	if len(out) > 0 {
		return out, nil
	}
	return nil, err
}

func newPart(data []byte, filename, declared string) Part {
	mediaType, mediaParams, err := mime.ParseMediaType(declared)
	if err != nil {
		mediaType = ""
	}

	isText := mediaType == "" || strings.HasPrefix(mediaType, "text/")
	if filename == "" && isText {
		if declared == "" {
			declared = defaultTextMIME
		}
		return Part{
			Value:    decodeText(data, mediaParams["charset"]),
			MimeType: declared,
		}
	}

	if declared == "" {
		declared = mimetype.Detect(data).String()
	}
	return Part{
		Value:    data,
		Filename: filename,
		MimeType: declared,
	}
}

// decodeText converts data from charset to a UTF-8 string. Unknown
// charsets and decoding failures leave the bytes untouched.
func decodeText(data []byte, charset string) string {
	charset = strings.TrimSpace(charset)
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return string(data)
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(data)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}
