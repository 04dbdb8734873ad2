package cobertura

import "encoding/xml"

// CoberturaRoot is the <coverage> element of a Cobertura report.
type CoberturaRoot struct {
	XMLName    xml.Name    `xml:"coverage"`
	LineRate   string      `xml:"line-rate,attr"`
	BranchRate string      `xml:"branch-rate,attr"`
	Timestamp  string      `xml:"timestamp,attr"`
	Sources    SourcesXML  `xml:"sources"`
	Packages   PackagesXML `xml:"packages"`
}

type SourcesXML struct {
	Source []string `xml:"source"`
}

type PackagesXML struct {
	Package []PackageXML `xml:"package"`
}

// PackageXML is one assembly.
type PackageXML struct {
	Name       string     `xml:"name,attr"`
	LineRate   string     `xml:"line-rate,attr"`
	BranchRate string     `xml:"branch-rate,attr"`
	Complexity string     `xml:"complexity,attr"`
	Classes    ClassesXML `xml:"classes"`
}

type ClassesXML struct {
	Class []ClassXML `xml:"class"`
}

// ClassXML is one class fragment; partial classes appear once per file.
type ClassXML struct {
	Name       string     `xml:"name,attr"`
	Filename   string     `xml:"filename,attr"`
	LineRate   string     `xml:"line-rate,attr"`
	BranchRate string     `xml:"branch-rate,attr"`
	Complexity string     `xml:"complexity,attr"`
	Methods    MethodsXML `xml:"methods"`
	Lines      LinesXML   `xml:"lines"`
}

type MethodsXML struct {
	Method []MethodXML `xml:"method"`
}

type MethodXML struct {
	Name       string   `xml:"name,attr"`
	Signature  string   `xml:"signature,attr"`
	LineRate   string   `xml:"line-rate,attr"`
	BranchRate string   `xml:"branch-rate,attr"`
	Complexity string   `xml:"complexity,attr"`
	Lines      LinesXML `xml:"lines"`
}

type LinesXML struct {
	Line []LineXML `xml:"line"`
}

type LineXML struct {
	Number            string        `xml:"number,attr"`
	Hits              string        `xml:"hits,attr"`
	Branch            string        `xml:"branch,attr"`
	ConditionCoverage string        `xml:"condition-coverage,attr"`
	Conditions        ConditionsXML `xml:"conditions"`
}

type ConditionsXML struct {
	Condition []ConditionXML `xml:"condition"`
}

type ConditionXML struct {
	Number   string `xml:"number,attr"`
	Type     string `xml:"type,attr"`
	Coverage string `xml:"coverage,attr"`
}
