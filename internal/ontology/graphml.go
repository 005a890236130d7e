// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ontology

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

const graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

type graphML struct {
	XMLName xml.Name   `xml:"graphml"`
	XMLNS   string     `xml:"xmlns,attr"`
	Keys    []graphKey `xml:"key"`
	Graph   graph      `xml:"graph"`
}

type graphKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
	Type string `xml:"attr.type,attr"`
}

type graph struct {
	ID          string      `xml:"id,attr"`
	EdgeDefault string      `xml:"edgedefault,attr"`
	Nodes       []graphNode `xml:"node"`
	Edges       []graphEdge `xml:"edge"`
}

type graphNode struct {
	ID   string      `xml:"id,attr"`
	Data []graphData `xml:"data"`
}

type graphEdge struct {
	ID     string      `xml:"id,attr"`
	Source string      `xml:"source,attr"`
	Target string      `xml:"target,attr"`
	Data   []graphData `xml:"data"`
}

type graphData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

var graphKeys = []graphKey{
	{ID: "label", For: "node", Name: "label", Type: "string"},
	{ID: "node_type", For: "node", Name: "node_type", Type: "string"},
	{ID: "size", For: "node", Name: "size", Type: "int"},
	{ID: "edge_label", For: "edge", Name: "label", Type: "string"},
	{ID: "predicate", For: "edge", Name: "predicate", Type: "string"},
	{ID: "confidence", For: "edge", Name: "confidence", Type: "double"},
	{ID: "bill", For: "edge", Name: "bill", Type: "string"},
}

// WriteGraphML serializes o as a directed GraphML graph for network
// viewers. Bills and individuals are nodes sized by degree; assertions and
// mentionedIn links are edges.
func WriteGraphML(w io.Writer, o *Ontology) error {
	g := graph{ID: "billgraph", EdgeDefault: "directed"}

	type edge struct {
		from, to, pred, bill string
		conf               float64
	}
	var edges []edge
	for _, ind := range o.Individuals {
		for _, b := range ind.Bills {
			edges = append(edges, edge{from: ind.Name, to: b, pred: PropMentionedIn, bill: b})
		}
	}
	for _, a := range o.Assertions {
		edges = append(edges, edge{from: a.Subject, to: a.Object, pred: a.Property, bill: a.Bill, conf: a.Confidence})
	}

	degree := map[string]int{}
	for _, e := range edges {
		degree[e.from]++
		degree[e.to]++
	}
	size := func(id string) string {
		return strconv.Itoa(max(5, min(50, degree[id]*2)))
	}

	for _, b := range o.Bills {
		g.Nodes = append(g.Nodes, graphNode{ID: b.Name, Data: []graphData{
			{Key: "label", Value: b.BillID},
			{Key: "node_type", Value: ClassBill},
			{Key: "size", Value: size(b.Name)},
		}})
	}
	for _, ind := range o.Individuals {
		g.Nodes = append(g.Nodes, graphNode{ID: ind.Name, Data: []graphData{
			{Key: "label", Value: ind.Label},
			{Key: "node_type", Value: ind.Class},
			{Key: "size", Value: size(ind.Name)},
		}})
	}
	for i, e := range edges {
		data := []graphData{
			{Key: "edge_label", Value: e.pred},
			{Key: "predicate", Value: e.pred},
			{Key: "bill", Value: e.bill},
		}
		if e.conf > 0 {
			data = append(data, graphData{Key: "confidence", Value: strconv.FormatFloat(e.conf, 'f', -1, 64)})
		}
		g.Edges = append(g.Edges, graphEdge{
			ID:     "e" + strconv.Itoa(i),
			Source: e.from,
			Target: e.to,
			Data:   data,
		})
	}

	doc := graphML{XMLNS: graphMLNamespace, Keys: graphKeys, Graph: g}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("writing GraphML: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("writing GraphML: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("writing GraphML: %w", err)
	}
	return nil
}
