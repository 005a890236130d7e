// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ontology

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"text/template"
)

var owlTemplate = template.Must(template.New("owl").Funcs(template.FuncMap{
	"x":     escape,
	"float": func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) },
}).Parse(`<?xml version="1.0"?>
<rdf:RDF xmlns="{{x .BaseIRI}}#"
     xml:base="{{x .BaseIRI}}"
     xmlns:owl="http://www.w3.org/2002/07/owl#"
     xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
     xmlns:xml="http://www.w3.org/XML/1998/namespace"
     xmlns:xsd="http://www.w3.org/2001/XMLSchema#"
     xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#">
    <owl:Ontology rdf:about="{{x .BaseIRI}}">
        <owl:versionIRI rdf:resource="{{x .BaseIRI}}/1.0"/>
    </owl:Ontology>

    <!-- Object Properties -->
    <owl:ObjectProperty rdf:about="#mentionedIn">
        <rdfs:range rdf:resource="#Bill"/>
        <rdfs:label>Mentioned In</rdfs:label>
        <rdfs:comment>Bill whose text names the individual</rdfs:comment>
    </owl:ObjectProperty>
{{- range .Properties}}
    <owl:ObjectProperty rdf:about="#{{x .Name}}">
        <rdfs:label>{{x .Label}}</rdfs:label>
        <rdfs:comment>{{x .Comment}}</rdfs:comment>
    </owl:ObjectProperty>
{{- end}}

    <!-- Data Properties -->
    <owl:DatatypeProperty rdf:about="#hasConfidence">
        <rdfs:range rdf:resource="http://www.w3.org/2001/XMLSchema#float"/>
        <rdfs:label>Has Confidence</rdfs:label>
    </owl:DatatypeProperty>
    <owl:DatatypeProperty rdf:about="#hasMeasureTitle">
        <rdfs:domain rdf:resource="#Bill"/>
        <rdfs:range rdf:resource="http://www.w3.org/2001/XMLSchema#string"/>
        <rdfs:label>Has Measure Title</rdfs:label>
    </owl:DatatypeProperty>

    <!-- Classes -->
{{- range .Classes}}
    <owl:Class rdf:about="#{{x .Name}}">
{{- if .Parent}}
        <rdfs:subClassOf rdf:resource="#{{x .Parent}}"/>
{{- end}}
        <rdfs:label>{{x .Label}}</rdfs:label>
        <rdfs:comment>{{x .Comment}}</rdfs:comment>
    </owl:Class>
{{- end}}

    <!-- Individuals -->
{{- range .Bills}}
    <owl:NamedIndividual rdf:about="#{{x .Name}}">
        <rdf:type rdf:resource="#Bill"/>
        <rdfs:label>{{x .BillID}}</rdfs:label>
{{- if .MeasureTitle}}
        <hasMeasureTitle rdf:datatype="http://www.w3.org/2001/XMLSchema#string">{{x .MeasureTitle}}</hasMeasureTitle>
{{- end}}
    </owl:NamedIndividual>
{{- end}}
{{- range .Individuals}}
    <owl:NamedIndividual rdf:about="#{{x .Name}}">
        <rdf:type rdf:resource="#{{x .Class}}"/>
        <rdfs:label>{{x .Label}}</rdfs:label>
{{- if .Confidence}}
        <hasConfidence rdf:datatype="http://www.w3.org/2001/XMLSchema#float">{{float .Confidence}}</hasConfidence>
{{- end}}
{{- range .Bills}}
        <mentionedIn rdf:resource="#{{x .}}"/>
{{- end}}
    </owl:NamedIndividual>
{{- end}}

    <!-- Assertions -->
{{- range .Assertions}}
    <rdf:Description rdf:about="#{{x .Subject}}">
        <{{.Property}} rdf:resource="#{{x .Object}}"/>
        <hasConfidence rdf:datatype="http://www.w3.org/2001/XMLSchema#float">{{float .Confidence}}</hasConfidence>
    </rdf:Description>
{{- end}}
</rdf:RDF>
`))

func escape(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails when the writer does.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// WriteOWL serializes o as OWL RDF/XML.
func WriteOWL(w io.Writer, o *Ontology) error {
	if err := owlTemplate.Execute(w, o); err != nil {
		return fmt.Errorf("writing OWL: %w", err)
	}
	return nil
}
