package encoding

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"

	"github.com/nojima/apitarget/target"
	"github.com/pkg/errors"
)

// Destination selects where URLEncoding writes parameters.
type Destination int

const (
	// MethodDependent uses the query string for GET, HEAD and DELETE and the body otherwise.
	MethodDependent Destination = iota
	QueryString
	HTTPBody
)

const formContentType = "application/x-www-form-urlencoded; charset=utf-8"

// URLEncoding encodes parameters as key=value pairs. Nested maps become
// key[sub]=value, slices become key[]=value and booleans become 1 or 0.
type URLEncoding struct {
	Destination Destination
}

func (e URLEncoding) Encode(r *http.Request, params target.Parameters) (*http.Request, error) {
	if r == nil {
		return nil, errNilRequest
	}
	if len(params) == 0 {
		return r, nil
	}

	values := url.Values{}
	for _, key := range sortedKeys(params) {
		queryComponents(values, key, params[key])
	}

	r = clone(r)
	if e.encodesInURL(target.Method(r.Method)) {
		q, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			return nil, errors.Wrap(err, "parsing query string")
		}
		for key, vs := range values {
			for _, v := range vs {
				q.Add(key, v)
			}
		}
		u := *r.URL
		u.RawQuery = q.Encode()
		r.URL = &u
		return r, nil
	}

	setBody(r, []byte(values.Encode()), formContentType)
	return r, nil
}

func (e URLEncoding) encodesInURL(method target.Method) bool {
	switch e.Destination {
	case QueryString:
		return true
	case HTTPBody:
		return false
	}
	switch method {
	case target.MethodGet, target.MethodHead, target.MethodDelete:
		return true
	default:
		return false
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func queryComponents(values url.Values, key string, value interface{}) {
	switch v := value.(type) {
	case nil:
		values.Add(key, "")
	case string:
		values.Add(key, v)
	case bool:
		if v {
			values.Add(key, "1")
		} else {
			values.Add(key, "0")
		}
	case float64:
		values.Add(key, strconv.FormatFloat(v, 'f', -1, 64))
	case float32:
		values.Add(key, strconv.FormatFloat(float64(v), 'f', -1, 32))
	case target.Parameters:
		queryComponents(values, key, map[string]interface{}(v))
	case map[string]interface{}:
		for _, k := range sortedKeys(v) {
			queryComponents(values, fmt.Sprintf("%s[%s]", key, k), v[k])
		}
	case []interface{}:
		for _, elem := range v {
			queryComponents(values, key+"[]", elem)
		}
	default:
		reflectComponents(values, key, reflect.ValueOf(value))
	}
}

// reflectComponents covers typed slices and string-keyed maps such as
// []string or map[string]int.
func reflectComponents(values url.Values, key string, rv reflect.Value) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			values.Add(key, string(rv.Bytes()))
			return
		}
		for i := 0; i < rv.Len(); i++ {
			queryComponents(values, key+"[]", rv.Index(i).Interface())
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			values.Add(key, fmt.Sprint(rv.Interface()))
			return
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		for _, k := range keys {
			elem := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
			queryComponents(values, fmt.Sprintf("%s[%s]", key, k), elem.Interface())
		}
	default:
		values.Add(key, fmt.Sprint(rv.Interface()))
	}
}
