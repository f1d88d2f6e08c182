package mqttree

import (
	"bytes"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// JSONTopic is a topic holding a JSON document. The compacted document is
// kept in a buffer reserved in the node arena at registration.
type JSONTopic struct {
	*node
	configurer[*JSONTopic]

	buf      []byte // len is the document size, cap the reserved buffer
	filter   []string
	maxDepth int
}

var invalidJSON = newJSONTopic(invalidNode, nil, nil, 0)

func newJSONTopic(n *node, buf []byte, filter []string, maxDepth int) *JSONTopic {
	j := &JSONTopic{node: n, buf: buf, filter: filter, maxDepth: maxDepth}
	j.configurer = configurer[*JSONTopic]{target: n, handle: j}
	return j
}

// AddJSON registers a JSON topic. With filter paths (gjson syntax), only
// those paths of an inbound document are kept.
func (g *Group) AddJSON(name string, filter ...string) *JSONTopic {
	if !g.valid() || g.tree == nil {
		return invalidJSON
	}
	d := g.tree.cfg
	size := d.JSONBufferSize

	return register(g, name, size, func(n *node) *JSONTopic {
		buf := g.tree.nodeBytes(n)
		if len(buf) >= size {
			buf = buf[len(buf)-size : len(buf)-size : len(buf)]
		} else {
			buf = make([]byte, 0, size)
		}
		return newJSONTopic(n, buf, append([]string(nil), filter...), d.JSONMaxDepth)
	}, func() *JSONTopic { return invalidJSON })
}

// Capacity returns the size of the document buffer.
func (j *JSONTopic) Capacity() int {
	if !j.valid() {
		return 0
	}
	return cap(j.buf)
}

// Raw returns a copy of the stored document.
func (j *JSONTopic) Raw() []byte {
	if !j.valid() {
		return nil
	}
	return bytes.Clone(j.buf)
}

// Payload returns the stored document.
func (j *JSONTopic) Payload() string {
	if !j.valid() {
		return ""
	}
	return string(j.buf)
}

// Get returns the value at path (gjson syntax).
func (j *JSONTopic) Get(path string) gjson.Result {
	if !j.valid() {
		return gjson.Result{}
	}
	return gjson.GetBytes(j.buf, path)
}

// Set stores value at path (sjson syntax).
func (j *JSONTopic) Set(path string, value any) ResultCode {
	if !j.valid() {
		return OutOfMemory
	}

	doc, err := sjson.SetBytes(j.document(), path, value)
	if err != nil {
		return InvalidValue
	}
	return j.store(doc)
}

// SetRaw stores raw JSON at path.
func (j *JSONTopic) SetRaw(path, raw string) ResultCode {
	if !j.valid() {
		return OutOfMemory
	}
	if !gjson.Valid(raw) {
		return InvalidPayload
	}

	doc, err := sjson.SetRawBytes(j.document(), path, []byte(raw))
	if err != nil {
		return InvalidValue
	}
	return j.store(doc)
}

// SetFromPayload replaces the document.
func (j *JSONTopic) SetFromPayload(payload string) ResultCode {
	if !j.valid() {
		return OutOfMemory
	}
	if payload == "" || !gjson.Valid(payload) {
		return InvalidPayload
	}

	doc := gjson.Parse(payload)
	if depth(doc) > j.maxDepth {
		return InvalidValue
	}

	raw := []byte(payload)
	if len(j.filter) > 0 {
		filtered := []byte("{}")
		for _, path := range j.filter {
			res := doc.Get(path)
			if !res.Exists() {
				continue
			}
			var err error
			if filtered, err = sjson.SetRawBytes(filtered, path, []byte(res.Raw)); err != nil {
				return InvalidValue
			}
		}
		raw = filtered
	}

	return j.store(raw)
}

// document returns a copy of the stored document, or an empty object.
func (j *JSONTopic) document() []byte {
	if len(j.buf) == 0 {
		return []byte("{}")
	}
	return bytes.Clone(j.buf)
}

func (j *JSONTopic) store(doc []byte) ResultCode {
	doc = pretty.Ugly(doc)
	if len(doc) > cap(j.buf) {
		return OutOfMemory
	}

	changed := !bytes.Equal(j.buf, doc)
	j.buf = append(j.buf[:0], doc...)
	j.touch(changed, false)

	return Ok
}

// depth returns the container nesting of r; scalars have depth 0.
func depth(r gjson.Result) int {
	if !r.IsObject() && !r.IsArray() {
		return 0
	}

	deepest := 0
	r.ForEach(func(_, v gjson.Result) bool {
		deepest = max(deepest, depth(v))
		return true
	})
	return deepest + 1
}
