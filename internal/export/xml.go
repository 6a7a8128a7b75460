package export

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tablewright/encounter-api/internal/errors"
)

// rootElement is the XML document root tag
const rootElement = "encounterExport"

// itemElement wraps each array entry. An explicit marker keeps arrays
// self-describing on the way back in, unlike tag-name singularization,
// which cannot reliably survive a round trip.
const itemElement = "item"

var (
	intPattern   = regexp.MustCompile(`^\d+$`)
	floatPattern = regexp.MustCompile(`^\d+\.\d+$`)
)

// EncodeXML renders an envelope as an XML tree rooted at <encounterExport>.
// Object fields become nested elements, array fields become a wrapper
// element containing one <item> child per entry, and scalar values render
// as entity-escaped text content. Sibling elements are emitted in sorted
// tag order so output is deterministic.
func EncodeXML(env *Envelope) ([]byte, error) {
	if env == nil {
		return nil, errors.InvalidArgument("envelope is required")
	}

	// round trip through JSON so element names match the wire field names
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "failed to flatten envelope")
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, errors.Wrap(err, "failed to flatten envelope")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	writeElement(&buf, rootElement, tree, 0)
	return buf.Bytes(), nil
}

func writeElement(buf *bytes.Buffer, name string, value any, depth int) {
	indent := strings.Repeat("  ", depth)

	switch v := value.(type) {
	case nil:
		// omitted entirely

	case map[string]any:
		buf.WriteString(indent + "<" + name + ">\n")
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeElement(buf, k, v[k], depth+1)
		}
		buf.WriteString(indent + "</" + name + ">\n")

	case []any:
		buf.WriteString(indent + "<" + name + ">\n")
		for _, item := range v {
			writeElement(buf, itemElement, item, depth+1)
		}
		buf.WriteString(indent + "</" + name + ">\n")

	default:
		buf.WriteString(indent + "<" + name + ">" +
			escapeXML(formatScalar(v)) + "</" + name + ">\n")
	}
}

func formatScalar(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

// escapeXML escapes the five XML entities in text content
func escapeXML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// xmlNode is one parsed element: either a leaf with text or a parent with
// child elements
type xmlNode struct {
	name     string
	text     strings.Builder
	children []*xmlNode
}

// DecodeXML walks an XML document with an event-based reader and rebuilds
// the generic envelope tree. Leaf text is coerced: integer when it matches
// ^\d+$, float on a decimal pattern, boolean when exactly true/false,
// otherwise string. An element whose children are all <item> becomes an
// array; repeated identically-named children also collapse into an array
// for compatibility with exports that used singularized tags.
func DecodeXML(data []byte) (map[string]any, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	root, err := parseDocument(dec)
	if err != nil {
		return nil, err
	}
	if root.name != rootElement {
		return nil, errors.InvalidFormatf("unexpected root element <%s>, want <%s>", root.name, rootElement)
	}

	value := nodeValue(root)
	tree, ok := value.(map[string]any)
	if !ok {
		return nil, errors.InvalidFormat("root element has no child elements")
	}
	return tree, nil
}

func parseDocument(dec *xml.Decoder) (*xmlNode, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, errors.InvalidFormat("document has no root element")
		}
		if err != nil {
			return nil, errors.InvalidFormatf("malformed XML: %v", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return parseElement(dec, start)
		}
	}
}

func parseElement(dec *xml.Decoder, start xml.StartElement) (*xmlNode, error) {
	node := &xmlNode{name: start.Name.Local}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.InvalidFormatf("malformed XML: %v", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(dec, t)
			if err != nil {
				return nil, err
			}
			node.children = append(node.children, child)
		case xml.CharData:
			node.text.Write(t)
		case xml.EndElement:
			return node, nil
		}
	}
}

// nodeValue converts a parsed element into its generic tree value
func nodeValue(node *xmlNode) any {
	if len(node.children) == 0 {
		return coerceScalar(node.text.String())
	}

	if allNamed(node.children, itemElement) {
		items := make([]any, len(node.children))
		for i, c := range node.children {
			items[i] = nodeValue(c)
		}
		return items
	}

	obj := make(map[string]any, len(node.children))
	for _, c := range node.children {
		v := nodeValue(c)
		existing, seen := obj[c.name]
		if !seen {
			obj[c.name] = v
			continue
		}
		// repeated tag: collapse into an array
		if arr, ok := existing.([]any); ok {
			obj[c.name] = append(arr, v)
		} else {
			obj[c.name] = []any{existing, v}
		}
	}
	return obj
}

func allNamed(nodes []*xmlNode, name string) bool {
	for _, n := range nodes {
		if n.name != name {
			return false
		}
	}
	return len(nodes) > 0
}

func coerceScalar(text string) any {
	// an element holding only layout whitespace is an empty value
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if intPattern.MatchString(text) {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
	}
	if floatPattern.MatchString(text) {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
	}
	if text == "true" {
		return true
	}
	if text == "false" {
		return false
	}
	return text
}
