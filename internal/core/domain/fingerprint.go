package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query parameters that never affect offer identity.
// Additional parameters can be stripped via the rules file.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"gclid":        {},
	"fbclid":       {},
	"ref":          {},
}

// Fingerprint derives the content-addressed identity of a campaign:
// re-scrapes of the same real-world offer, with cosmetic text changes,
// must map to the same key, while distinct offers must not collide.
// The key is a hash over the canonical source, the folded title, the
// normalized target URL and the category. stripParams extends the
// built-in tracking-parameter strip list.
func Fingerprint(canonicalSource, title, targetURL, category string, stripParams []string) string {
	h := sha256.New()
	h.Write([]byte(NormalizeKey(canonicalSource)))
	h.Write([]byte{0})
	h.Write([]byte(NormalizeKey(title)))
	h.Write([]byte{0})
	h.Write([]byte(NormalizeURL(targetURL, stripParams)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(category))))
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeURL canonicalizes a target URL for fingerprinting: scheme
// and host are lowercased, the fragment is dropped, tracking parameters
// are stripped and the remaining query is re-encoded in sorted order.
// Unparseable URLs fold to their trimmed lowercase form.
func NormalizeURL(raw string, stripParams []string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	q := u.Query()
	for name := range q {
		if _, ok := trackingParams[strings.ToLower(name)]; ok {
			q.Del(name)
		}
	}
	for _, name := range stripParams {
		q.Del(name)
	}
	u.RawQuery = sortedEncode(q)
	return u.String()
}

func sortedEncode(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		vals := q[k]
		sort.Strings(vals)
		for _, v := range vals {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
