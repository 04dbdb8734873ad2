package opencover

import "encoding/xml"

// CoverageSessionXML is the <CoverageSession> root of an OpenCover report.
type CoverageSessionXML struct {
	XMLName xml.Name    `xml:"CoverageSession"`
	Modules []ModuleXML `xml:"Modules>Module"`
}

// ModuleXML is one instrumented assembly. Modules skipped by the tool's own
// filters carry skippedDueTo and no classes.
type ModuleXML struct {
	SkippedDueTo string     `xml:"skippedDueTo,attr"`
	ModulePath   string     `xml:"ModulePath"`
	ModuleName   string     `xml:"ModuleName"`
	Files        []FileXML  `xml:"Files>File"`
	Classes      []ClassXML `xml:"Classes>Class"`
}

type FileXML struct {
	UID      string `xml:"uid,attr"`
	FullPath string `xml:"fullPath,attr"`
}

// ClassXML is one type; nested and compiler-generated types use "/" in
// FullName ("Ns.Outer/<LoadAsync>d__3").
type ClassXML struct {
	SkippedDueTo string      `xml:"skippedDueTo,attr"`
	FullName     string      `xml:"FullName"`
	Methods      []MethodXML `xml:"Methods>Method"`
}

// MethodXML carries the per-method complexity and coverage attributes plus
// the raw sequence and branch points.
type MethodXML struct {
	SkippedDueTo         string           `xml:"skippedDueTo,attr"`
	Visited              string           `xml:"visited,attr"`
	CyclomaticComplexity string           `xml:"cyclomaticComplexity,attr"`
	NPathComplexity      string           `xml:"nPathComplexity,attr"`
	SequenceCoverage     string           `xml:"sequenceCoverage,attr"`
	BranchCoverage       string           `xml:"branchCoverage,attr"`
	IsGetter             string           `xml:"isGetter,attr"`
	IsSetter             string           `xml:"isSetter,attr"`
	Name                 string           `xml:"Name"`
	FileRef              FileRefXML       `xml:"FileRef"`
	SequencePoints       []SequencePoint  `xml:"SequencePoints>SequencePoint"`
	BranchPoints         []BranchPointXML `xml:"BranchPoints>BranchPoint"`
}

type FileRefXML struct {
	UID string `xml:"uid,attr"`
}

type SequencePoint struct {
	VisitCount string `xml:"vc,attr"`
	StartLine  string `xml:"sl,attr"`
	EndLine    string `xml:"el,attr"`
}

type BranchPointXML struct {
	VisitCount string `xml:"vc,attr"`
	StartLine  string `xml:"sl,attr"`
}
