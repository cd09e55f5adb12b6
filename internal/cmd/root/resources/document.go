package resources

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	yamlv3 "gopkg.in/yaml.v3"
	"sigs.k8s.io/yaml"

	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/store"
)

// Document is the export and import file format: the records of one entity.
type Document struct {
	Entity  string           `json:"entity"  yaml:"entity"`
	Records []map[string]any `json:"records" yaml:"records"`
}

// NewDocument holds the field values of rows. IDs and timestamps are left
// out so the document can be imported elsewhere.
func NewDocument(e *dealer.Entity, rows []store.Row) Document {
	doc := Document{Entity: e.Name, Records: make([]map[string]any, len(rows))}
	for i, row := range rows {
		record := make(map[string]any, len(row.Fields))
		for _, f := range e.Visible() {
			if v, ok := row.Fields[f.Key]; ok {
				record[f.Key] = v
			}
		}
		doc.Records[i] = record
	}
	return doc
}

// WriteDocument encodes doc as yaml with fields in form order.
func WriteDocument(w io.Writer, e *dealer.Entity, doc Document) error {
	records := make([]*yamlv3.Node, len(doc.Records))
	for i, record := range doc.Records {
		node := &yamlv3.Node{Kind: yamlv3.MappingNode}
		for _, key := range e.FieldKeys() {
			v, ok := record[key]
			if !ok {
				continue
			}
			var value yamlv3.Node
			if err := value.Encode(plainNumber(v)); err != nil {
				return fmt.Errorf("failed to encode %s: %w", key, err)
			}
			node.Content = append(node.Content,
				&yamlv3.Node{Kind: yamlv3.ScalarNode, Value: key}, &value)
		}
		records[i] = node
	}

	root := &yamlv3.Node{Kind: yamlv3.MappingNode, Content: []*yamlv3.Node{
		{Kind: yamlv3.ScalarNode, Value: "entity"},
		{Kind: yamlv3.ScalarNode, Value: doc.Entity},
		{Kind: yamlv3.ScalarNode, Value: "records"},
		{Kind: yamlv3.SequenceNode, Content: records},
	}}

	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return err
	}
	return enc.Close()
}

// plainNumber keeps whole amounts out of exponent notation.
func plainNumber(v any) any {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return int64(f)
	}
	return v
}

// ReadDocument decodes a yaml or json document.
func ReadDocument(data []byte) (Document, error) {
	var doc Document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return Document{}, fmt.Errorf("invalid import document: %w", err)
	}
	doc.Entity = strings.TrimSpace(doc.Entity)
	if doc.Entity == "" {
		return Document{}, errors.New("invalid import document: entity is required")
	}
	return doc, nil
}
