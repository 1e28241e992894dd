package hostreq

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/ansel1/merry"
	goquery "github.com/google/go-querystring/query"
)

// ParamsSerializer turns Config.Params into a query string, without the
// leading "?".
type ParamsSerializer func(params interface{}) (string, error)

// BuildURL concatenates baseURL and path, then appends the serialized params.
// A fragment in the concatenated URL is moved after the query string.  If
// serializer is nil, DefaultParamsSerializer is used.
func BuildURL(baseURL, path string, params interface{}, serializer ParamsSerializer) (string, error) {
	if serializer == nil {
		serializer = DefaultParamsSerializer
	}

	fullURL := baseURL + path

	query, err := serializer(params)
	if err != nil {
		return "", merry.Prepend(err, "serializing params")
	}
	if query == "" {
		return fullURL, nil
	}

	var fragment string
	if i := strings.IndexByte(fullURL, '#'); i >= 0 {
		fullURL, fragment = fullURL[:i], fullURL[i:]
	}

	switch {
	case strings.HasSuffix(fullURL, "?"), strings.HasSuffix(fullURL, "&"):
	case strings.Contains(fullURL, "?"):
		fullURL += "&"
	default:
		fullURL += "?"
	}

	return fullURL + query + fragment, nil
}

// DefaultParamsSerializer serializes params into a query string.
//
//   - nil yields ""
//   - a string is assumed to be already encoded
//   - url.Values and map[string][]string are encoded with repeated keys
//   - structs are encoded with github.com/google/go-querystring, honoring `url` tags
//   - other maps are encoded with bracket notation: slices become k[]=v and
//     nested maps become k[sub]=v
//
// Keys are always sorted so the output is deterministic.  Nil values are
// skipped.
func DefaultParamsSerializer(params interface{}) (string, error) {
	switch p := params.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimPrefix(p, "?"), nil
	case url.Values:
		return p.Encode(), nil
	case map[string][]string:
		return url.Values(p).Encode(), nil
	}

	v := reflect.ValueOf(params)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		values, err := goquery.Values(params)
		if err != nil {
			return "", merry.Prepend(err, "invalid params struct")
		}
		return values.Encode(), nil
	case reflect.Map:
		var pairs []string
		appendMap(&pairs, "", v)
		return strings.Join(pairs, "&"), nil
	}

	return "", merry.Errorf("unsupported params type: %T", params)
}

func appendMap(pairs *[]string, prefix string, m reflect.Value) {
	keys := make([]string, 0, m.Len())
	byKey := make(map[string]reflect.Value, m.Len())
	for _, k := range m.MapKeys() {
		s := fmt.Sprint(k.Interface())
		keys = append(keys, s)
		byKey[s] = m.MapIndex(k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := escape(k)
		if prefix != "" {
			key = prefix + "[" + key + "]"
		}
		appendValue(pairs, key, byKey[k])
	}
}

func appendValue(pairs *[]string, key string, v reflect.Value) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}

	if t, ok := v.Interface().(time.Time); ok {
		*pairs = append(*pairs, key+"="+escape(t.Format(time.RFC3339)))
		return
	}

	switch v.Kind() {
	case reflect.Map:
		appendMap(pairs, key, v)
	case reflect.Slice, reflect.Array:
		if b, ok := v.Interface().([]byte); ok {
			*pairs = append(*pairs, key+"="+escape(string(b)))
			return
		}
		for i := 0; i < v.Len(); i++ {
			appendValue(pairs, key+"[]", v.Index(i))
		}
	default:
		*pairs = append(*pairs, key+"="+escape(fmt.Sprint(v.Interface())))
	}
}

// escape percent-encodes s per RFC 3986, so spaces become %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
