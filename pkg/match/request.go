package match

import (
	"bytes"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"

	"soul-hq/gateway/pkg/dto"
)

// maxFormBody caps how much of a form body is buffered for post conditions.
const maxFormBody = 1 << 20

// Params gives read-only access to request parameters by type and name.
type Params interface {
	Param(t dto.ParamType, name string) (string, bool)
}

// Request is the immutable view of an inbound request used during one match.
type Request struct {
	Method     string
	Path       string
	Host       string
	RemoteIP   string
	Header     http.Header
	Query      url.Values
	Form       url.Values
	Cookies    map[string]string
	Attributes map[string]string
}

// NewRequest captures the matchable parts of r. A url-encoded form body is
// read and put back so the request can still be proxied.
func NewRequest(r *http.Request) *Request {
	req := &Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Host:       r.Host,
		RemoteIP:   clientIP(r),
		Header:     r.Header,
		Query:      r.URL.Query(),
		Cookies:    make(map[string]string),
		Attributes: make(map[string]string),
	}
	for _, c := range r.Cookies() {
		req.Cookies[c.Name] = c.Value
	}
	req.Form = readForm(r)
	return req
}

// Param implements Params.
func (r *Request) Param(t dto.ParamType, name string) (string, bool) {
	switch t {
	case dto.ParamURI:
		return r.Path, true
	case dto.ParamMethod:
		return r.Method, r.Method != ""
	case dto.ParamHeader:
		vals := r.Header.Values(name)
		if len(vals) == 0 {
			return "", false
		}
		return vals[0], true
	case dto.ParamQuery:
		return first(r.Query, name)
	case dto.ParamPost:
		return first(r.Form, name)
	case dto.ParamCookie:
		v, ok := r.Cookies[name]
		return v, ok
	case dto.ParamIP:
		return r.RemoteIP, r.RemoteIP != ""
	case dto.ParamHost:
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		return host, host != ""
	case dto.ParamDomain:
		return r.Host, r.Host != ""
	case dto.ParamAttribute:
		v, ok := r.Attributes[name]
		return v, ok
	}
	return "", false
}

func first(values url.Values, name string) (string, bool) {
	vals, ok := values[name]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(ip)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func readForm(r *http.Request) url.Values {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength > maxFormBody {
		return nil
	}
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "application/x-www-form-urlencoded" {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFormBody+1))
	if err != nil || len(body) > maxFormBody {
		// Oversized or unreadable: leave the stream intact for the upstream.
		r.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(body), r.Body), Closer: r.Body}
		return nil
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil
	}
	return form
}

// replayBody serves the buffered prefix followed by the unread rest of the
// original body, and closes the original.
type replayBody struct {
	io.Reader
	io.Closer
}
